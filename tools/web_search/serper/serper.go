package serper

import (
	"context"
	"net/http"

	"github.com/mohammad-safakhou/stockscout/internal/httpclient"
	"github.com/mohammad-safakhou/stockscout/tools/web_search/models"
)

const DefaultEndpoint = "https://google.serper.dev/search"

type Search struct {
	ApiKey   string
	Endpoint string
	HTTP     *httpclient.Client
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	// https://serper.dev/ docs
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	var resp struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	headers := map[string]string{"X-API-KEY": s.ApiKey}
	payload := map[string]any{"q": q, "num": k}
	if err := s.HTTP.DoJSON(ctx, http.MethodPost, endpoint, headers, payload, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Result, 0, len(resp.Organic))
	for _, it := range resp.Organic {
		out = append(out, models.Result{Title: it.Title, URL: it.Link, Snippet: it.Snippet})
	}
	return out, nil
}
