package upstream

import (
	"context"
	"errors"
	"net/url"
	"strconv"
)

type Gif struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Gifs searches Giphy. There is no fallback: failures surface as upstream errors.
type Gifs struct {
	client *Client
}

func NewGifs(client *Client) *Gifs {
	return &Gifs{client: client}
}

var errGiphyKeyMissing = errors.New("giphy api key not configured")

func (g *Gifs) Search(ctx context.Context, query string, limit int) ([]Gif, error) {
	if g.client.APIKey() == "" {
		return nil, unavailable(g.client, errGiphyKeyMissing)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var out struct {
		Data []struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Images struct {
				FixedHeight struct {
					URL string `json:"url"`
				} `json:"fixed_height"`
			} `json:"images"`
		} `json:"data"`
	}
	q := url.Values{
		"api_key": {g.client.APIKey()},
		"q":       {query},
		"limit":   {strconv.Itoa(limit)},
		"rating":  {"g"},
	}
	if err := g.client.GetJSON(ctx, "/search", q, nil, &out); err != nil {
		return nil, err
	}
	gifs := make([]Gif, 0, len(out.Data))
	for _, d := range out.Data {
		gifs = append(gifs, Gif{ID: d.ID, Title: d.Title, URL: d.Images.FixedHeight.URL})
	}
	return gifs, nil
}
