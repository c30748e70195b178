package upstream

import (
	"context"
	"errors"
	"net/url"
	"time"

	"fitcommunity/internal/domain"
)

// Fact is a short text payload with attribution, shared by quotes and cat facts.
type Fact struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
	Cached bool   `json:"cached"`
}

// fallbackSource remembers the last good answer and serves it, or a built-in
// default, when the upstream is down.
type fallbackSource struct {
	client *Client
	cache  *Cache[Fact]
	def    Fact
	fetch  func(ctx context.Context, c *Client) (Fact, error)
}

func (s *fallbackSource) get(ctx context.Context) Fact {
	if f, fresh, ok := s.cache.Get("last"); ok && fresh {
		f.Cached = true
		return f
	}
	f, err := s.fetch(ctx, s.client)
	if err == nil && f.Text != "" {
		s.cache.Set("last", f)
		return f
	}
	if f, _, ok := s.cache.Get("last"); ok {
		f.Cached = true
		return f
	}
	d := s.def
	d.Cached = true
	return d
}

// Quotes serves motivational quotes from ZenQuotes.
type Quotes struct{ src fallbackSource }

// NewQuotes caches each quote for ttl; ZenQuotes rate-limits aggressively.
func NewQuotes(client *Client, ttl time.Duration) *Quotes {
	return &Quotes{src: fallbackSource{
		client: client,
		cache:  NewCache[Fact](ttl, 1),
		def:    Fact{Text: "The only bad workout is the one that didn't happen.", Author: "Unknown"},
		fetch: func(ctx context.Context, c *Client) (Fact, error) {
			var out []struct {
				Q string `json:"q"`
				A string `json:"a"`
			}
			if err := c.GetJSON(ctx, "/random", nil, nil, &out); err != nil {
				return Fact{}, err
			}
			if len(out) == 0 {
				return Fact{}, domain.Upstream(c.Name(), errors.New("empty quote list"))
			}
			return Fact{Text: out[0].Q, Author: out[0].A}, nil
		},
	}}
}

// Random never fails; Cached is set when the answer did not come from a fresh call.
func (q *Quotes) Random(ctx context.Context) Fact { return q.src.get(ctx) }

// CatFacts serves facts from catfact.ninja.
type CatFacts struct{ src fallbackSource }

func NewCatFacts(client *Client, ttl time.Duration) *CatFacts {
	return &CatFacts{src: fallbackSource{
		client: client,
		cache:  NewCache[Fact](ttl, 1),
		def:    Fact{Text: "Cats sleep for around 13 to 16 hours a day."},
		fetch: func(ctx context.Context, c *Client) (Fact, error) {
			var out struct {
				Fact string `json:"fact"`
			}
			if err := c.GetJSON(ctx, "/fact", url.Values{"max_length": {"200"}}, nil, &out); err != nil {
				return Fact{}, err
			}
			return Fact{Text: out.Fact}, nil
		},
	}}
}

func (f *CatFacts) Random(ctx context.Context) Fact { return f.src.get(ctx) }
