package models

import (
	"encoding/json"
	"testing"
)

func TestNormalizeTypeMatchesRole(t *testing.T) {
	byRole := Normalize(Message{Role: "system", Content: "x"})
	byType := Normalize(Message{Type: "system", Content: "x"})
	if byRole != byType {
		t.Fatalf("type-tagged message normalized differently: %+v vs %+v", byRole, byType)
	}
}

func TestNormalizeRoles(t *testing.T) {
	cases := []struct {
		in   Message
		want string
	}{
		{Message{Role: "SYSTEM"}, "system"},
		{Message{Type: "Assistant"}, "assistant"},
		{Message{}, "user"},
		{Message{Role: "tool"}, "user"},
		{Message{Role: "assistant", Type: "system"}, "assistant"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in).Role; got != tc.want {
			t.Fatalf("Normalize(%+v).Role = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeDecodedShapes(t *testing.T) {
	var msgs []Message
	raw := `[{"type":"system","content":"a"},{"role":"user","content":"b"},{"content":"c"}]`
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out := NormalizeAll(msgs)
	if out[0].Role != "system" || out[1].Role != "user" || out[2].Role != "user" {
		t.Fatalf("unexpected roles: %+v", out)
	}
	if out[0].Type != "" {
		t.Fatalf("type should be dropped after normalization")
	}
}
