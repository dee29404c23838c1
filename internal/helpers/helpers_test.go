package helpers

import "testing"

func TestUnwrapFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"~~~\nplain\n~~~":         "plain",
		"  no fence  ":            "no fence",
	}
	for in, want := range cases {
		if got := UnwrapFence(in); got != want {
			t.Fatalf("UnwrapFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFindJSONObject(t *testing.T) {
	in := `Here is the summary: {"title":"a {weird} title","n":{"x":1}} thanks`
	got, ok := FindJSONObject(in)
	if !ok || got != `{"title":"a {weird} title","n":{"x":1}}` {
		t.Fatalf("unexpected object %q ok=%v", got, ok)
	}
	if _, ok := FindJSONObject("no json here {"); ok {
		t.Fatalf("unbalanced input should not match")
	}
}

func TestCanonicalURL(t *testing.T) {
	got := CanonicalURL("HTTPS://News.Example.com:443/a?utm_source=x&b=2&a=1#top")
	if got != "https://news.example.com/a?a=1&b=2" {
		t.Fatalf("unexpected canonical url %q", got)
	}
	if CanonicalURL("https://example.com") != "https://example.com/" {
		t.Fatalf("empty path should become /")
	}
	if got := CanonicalURL("http://[::1]:8080/x"); got != "http://[::1]:8080/x" {
		t.Fatalf("ipv6 host with port lost its brackets: %q", got)
	}
	if got := CanonicalURL("https://[2001:DB8::1]:443/"); got != "https://[2001:db8::1]/" {
		t.Fatalf("ipv6 host without port lost its brackets: %q", got)
	}
	if CanonicalURL(" not a url ") != "not a url" {
		t.Fatalf("unparseable input should pass through trimmed")
	}
}
