package brave

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mohammad-safakhou/stockscout/internal/httpclient"
	"github.com/mohammad-safakhou/stockscout/tools/web_search/models"
)

const DefaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

type Search struct {
	ApiKey   string
	Endpoint string
	HTTP     *httpclient.Client
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if k > 20 {
		k = 20 // brave caps count at 20
	}
	full := fmt.Sprintf("%s?q=%s&count=%d", endpoint, url.QueryEscape(q), k)
	headers := map[string]string{"Accept": "application/json", "X-Subscription-Token": s.ApiKey}
	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := s.HTTP.DoJSON(ctx, http.MethodGet, full, headers, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]models.Result, 0, len(raw.Web.Results))
	for _, r := range raw.Web.Results {
		out = append(out, models.Result{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return out, nil
}
