package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/stockscout/internal/agent/core"
	"github.com/prometheus/client_golang/prometheus"
)

type stubResearcher struct{ got core.Request }

func (s *stubResearcher) Run(ctx context.Context, req core.Request) core.Report {
	s.got = req
	return core.Report{
		RunID:    "run-1",
		Topic:    req.Topic,
		Findings: []core.Finding{{Query: "q", Link: "https://a", Summary: "s"}},
	}
}

var quiet = log.New(io.Discard, "", 0)

func post(t *testing.T, h http.Handler, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResearchEndpoint(t *testing.T) {
	r := &stubResearcher{}
	e := New(Options{Researcher: r, Logger: quiet, Gatherer: prometheus.NewRegistry()})
	rec := post(t, e, `{"topic":" IBM ","max_links_per_query":2,"max_subqueries":3}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if r.got.Topic != "IBM" || r.got.MaxLinksPerQuery != 2 || r.got.MaxSubqueries != 3 {
		t.Fatalf("request not forwarded: %+v", r.got)
	}
	var report core.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.RunID != "run-1" || len(report.Findings) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestResearchEndpointRejectsEmptyTopic(t *testing.T) {
	e := New(Options{Researcher: &stubResearcher{}, Logger: quiet, Gatherer: prometheus.NewRegistry()})
	rec := post(t, e, `{"topic":"  "}`, "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "topic is required") {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestResearchEndpointRequiresToken(t *testing.T) {
	secret := []byte("s3cret")
	e := New(Options{Researcher: &stubResearcher{}, Logger: quiet, JWTSecret: secret, Gatherer: prometheus.NewRegistry()})

	if rec := post(t, e, `{"topic":"IBM"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := post(t, e, `{"topic":"IBM"}`, "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
	other, _ := SignJWT("cli", []byte("other"), time.Minute)
	if rec := post(t, e, `{"topic":"IBM"}`, other); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign token, got %d", rec.Code)
	}
	expired, _ := SignJWT("cli", secret, -time.Minute)
	if rec := post(t, e, `{"topic":"IBM"}`, expired); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
	tok, err := SignJWT("cli", secret, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if rec := post(t, e, `{"topic":"IBM"}`, tok); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthAndMetricsStayOpen(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total"})
	reg.MustRegister(c)
	c.Inc()
	e := New(Options{Researcher: &stubResearcher{}, Logger: quiet, JWTSecret: []byte("x"), Gatherer: reg})

	for path, want := range map[string]string{"/healthz": "ok", "/metrics": "probe_total 1"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("%s: got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestSignJWTRejectsEmptySecret(t *testing.T) {
	if _, err := SignJWT("x", nil, time.Minute); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
