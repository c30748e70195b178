package upstream

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/pkg/location"
)

var errBadCoordinates = errors.New("unparseable coordinates")

// Geocoder resolves free text to a coordinate. A nil point with a nil error
// means the service answered but found nothing.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*location.Point, error)
}

// Nominatim geocodes through the OpenStreetMap Nominatim search API. It is
// keyless but requires an identifying User-Agent.
type Nominatim struct {
	client *Client
	cache  *Cache[*location.Point]
}

func NewNominatim(client *Client, ttl time.Duration) *Nominatim {
	return &Nominatim{client: client, cache: NewCache[*location.Point](ttl, 1000)}
}

type nominatimHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Geocode(ctx context.Context, query string) (*location.Point, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if key == "" {
		return nil, domain.Invalid("location must not be empty")
	}
	if p, fresh, ok := n.cache.Get(key); ok && fresh {
		return p, nil
	}
	var hits []nominatimHit
	q := url.Values{"q": {query}, "format": {"json"}, "limit": {"1"}}
	if err := n.client.GetJSON(ctx, "/search", q, nil, &hits); err != nil {
		// coordinates do not move; a stale answer beats failing the search
		if p, _, ok := n.cache.Get(key); ok {
			return p, nil
		}
		return nil, err
	}
	var p *location.Point
	if len(hits) > 0 {
		lat, err1 := strconv.ParseFloat(hits[0].Lat, 64)
		lon, err2 := strconv.ParseFloat(hits[0].Lon, 64)
		if err1 != nil || err2 != nil {
			return nil, domain.Upstream(n.client.Name(), errBadCoordinates)
		}
		p = &location.Point{Lat: lat, Lng: lon}
	}
	n.cache.Set(key, p)
	return p, nil
}
