package web_fetch

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/stockscout/config"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/cache"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/models"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/static"
)

var quiet = log.New(io.Discard, "", 0)

func failing(name models.Strategy, calls *int) Strategy {
	return StrategyFunc(name, func(ctx context.Context, url string) (string, error) {
		*calls++
		return "", errors.New("boom")
	})
}

func returning(name models.Strategy, markup string, calls *int) Strategy {
	return StrategyFunc(name, func(ctx context.Context, url string) (string, error) {
		*calls++
		return markup, nil
	})
}

func TestFetchFallsBackToStaticWhenDynamicFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>Quarterly revenue rose.</p><script>x()</script></body></html>"))
	}))
	defer srv.Close()

	var dyn int
	f := New([]Strategy{failing(models.StrategyDynamic, &dyn), static.Fetch{Timeout: time.Second}}, WithLogger(quiet))
	out := f.Fetch(context.Background(), srv.URL)
	if dyn != 1 {
		t.Fatalf("dynamic strategy should be attempted once, got %d", dyn)
	}
	if out.Strategy != models.StrategyStatic || out.Text != "Quarterly revenue rose." {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestFetchDynamicSuccessSkipsStatic(t *testing.T) {
	var dyn, st int
	f := New([]Strategy{
		returning(models.StrategyDynamic, "<p>rendered</p>", &dyn),
		returning(models.StrategyStatic, "<p>raw</p>", &st),
	}, WithLogger(quiet))
	out := f.Fetch(context.Background(), "https://example.com")
	if out.Strategy != models.StrategyDynamic || out.Text != "rendered" || st != 0 {
		t.Fatalf("unexpected outcome %+v static calls=%d", out, st)
	}
}

func TestFetchAllFailReturnsNone(t *testing.T) {
	var dyn, st int
	f := New([]Strategy{failing(models.StrategyDynamic, &dyn), failing(models.StrategyStatic, &st)}, WithLogger(quiet))
	out := f.Fetch(context.Background(), "https://example.com")
	if out.Strategy != models.StrategyNone || out.Text != "" || out.URL != "https://example.com" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if dyn != 1 || st != 1 {
		t.Fatalf("each strategy should be tried once, got %d/%d", dyn, st)
	}
}

func TestFetchEmptyExtractionTriesNextStrategy(t *testing.T) {
	var dyn, st int
	f := New([]Strategy{
		returning(models.StrategyDynamic, "<script>only()</script>", &dyn),
		returning(models.StrategyStatic, "<p>fallback text</p>", &st),
	}, WithLogger(quiet))
	out := f.Fetch(context.Background(), "https://example.com")
	if out.Strategy != models.StrategyStatic || out.Text != "fallback text" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestFetchEmptyURL(t *testing.T) {
	var calls int
	f := New([]Strategy{returning(models.StrategyStatic, "<p>x</p>", &calls)}, WithLogger(quiet))
	if out := f.Fetch(context.Background(), "  "); out.Strategy != models.StrategyNone || calls != 0 {
		t.Fatalf("blank url should not be fetched: %+v calls=%d", out, calls)
	}
}

func TestFetchUsesCache(t *testing.T) {
	var calls int
	c := cache.NewMemory(time.Hour)
	f := New([]Strategy{returning(models.StrategyStatic, "<p>cached body</p>", &calls)}, WithLogger(quiet), WithCache(c))

	first := f.Fetch(context.Background(), "https://example.com")
	second := f.Fetch(context.Background(), "https://example.com")
	if calls != 1 {
		t.Fatalf("second fetch should hit cache, strategy calls=%d", calls)
	}
	if first.Cached || !second.Cached || second.Text != first.Text || second.Strategy != models.StrategyStatic {
		t.Fatalf("unexpected outcomes %+v %+v", first, second)
	}
}

func TestFetchFailuresAreNotCached(t *testing.T) {
	var calls int
	c := cache.NewMemory(time.Hour)
	f := New([]Strategy{failing(models.StrategyStatic, &calls)}, WithLogger(quiet), WithCache(c))
	f.Fetch(context.Background(), "https://example.com")
	f.Fetch(context.Background(), "https://example.com")
	if calls != 2 {
		t.Fatalf("failed fetches must be retried, calls=%d", calls)
	}
}

func TestFetchSkipsExcludedDomains(t *testing.T) {
	var calls int
	f := New([]Strategy{returning(models.StrategyStatic, "<p>x</p>", &calls)}, WithLogger(quiet), WithSkipDomains([]string{"wsj.com"}))
	for _, u := range []string{"https://www.wsj.com/markets", "https://news.wsj.com/a"} {
		if out := f.Fetch(context.Background(), u); out.Strategy != models.StrategyNone {
			t.Fatalf("%s should be skipped, got %+v", u, out)
		}
	}
	if out := f.Fetch(context.Background(), "https://notwsj.com/a"); out.Strategy != models.StrategyStatic {
		t.Fatalf("similar host must not be skipped: %+v", out)
	}
	if calls != 1 {
		t.Fatalf("expected only the allowed link fetched, calls=%d", calls)
	}
}

func TestNewFromConfigWithoutDynamic(t *testing.T) {
	cfg := config.Config{}.Normalize().Fetch
	cfg.DynamicEnabled = false
	f := NewFromConfig(cfg, WithLogger(quiet))
	got := f.Strategies()
	if len(got) != 1 || got[0] != models.StrategyStatic {
		t.Fatalf("expected static-only chain, got %v", got)
	}
}

func TestNewFromConfigMissingBrowserPath(t *testing.T) {
	cfg := config.Config{}.Normalize().Fetch
	cfg.DynamicEnabled = true
	cfg.ExecPath = "/nonexistent/chrome-binary"
	got := NewFromConfig(cfg, WithLogger(quiet)).Strategies()
	if strings.Join(stringsOf(got), ",") != "static" {
		t.Fatalf("missing browser should drop dynamic strategy, got %v", got)
	}
}

func stringsOf(s []models.Strategy) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}
