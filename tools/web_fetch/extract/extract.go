// Package extract turns page markup into plain text.
package extract

import (
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Extractor converts markup fetched from pageURL into text.
type Extractor func(markup, pageURL string) string

// New returns the extractor for mode ("visible" or "readability").
func New(mode string) Extractor {
	if mode == "readability" {
		return Readability
	}
	return Visible
}

var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "canvas": true, "iframe": true, "object": true,
}

var blocks = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "body": true,
	"br": true, "dd": true, "details": true, "dialog": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "summary": true, "table": true, "td": true,
	"th": true, "title": true, "tr": true, "ul": true,
}

// Visible returns every visible text run, one line per block element.
// Script-like elements are dropped and whitespace inside a line collapsed.
func Visible(markup, _ string) string {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	var (
		lines []string
		cur   strings.Builder
	)
	flush := func() {
		if line := strings.TrimSpace(cur.String()); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if f := strings.Fields(n.Data); len(f) > 0 {
				if cur.Len() > 0 {
					cur.WriteByte(' ')
				}
				cur.WriteString(strings.Join(f, " "))
			}
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if skipped[n.Data] {
				return
			}
		}
		block := n.Type == html.ElementNode && blocks[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(root)
	flush()
	return strings.Join(lines, "\n")
}

// Readability keeps only the main article text, falling back to Visible
// when no article can be identified.
func Readability(markup, pageURL string) string {
	article, err := readability.FromReader(strings.NewReader(markup), mustParseURL(pageURL))
	if err != nil {
		return Visible(markup, pageURL)
	}
	var lines []string
	for _, l := range strings.Split(article.TextContent, "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return Visible(markup, pageURL)
	}
	if title := strings.TrimSpace(article.Title); title != "" && lines[0] != title {
		lines = append([]string{title}, lines...)
	}
	return strings.Join(lines, "\n")
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
