package upstream

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Exercise struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	BodyPart     string   `json:"bodyPart"`
	Target       string   `json:"target"`
	Equipment    string   `json:"equipment"`
	GifURL       string   `json:"gifUrl,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
}

// ExerciseResult carries the list and whether it came from a stale cache.
type ExerciseResult struct {
	Exercises []Exercise `json:"exercises"`
	Cached    bool       `json:"cached"`
}

// Exercises wraps ExerciseDB on RapidAPI. Results are cached per query and a
// stale copy is served when a refresh fails.
type Exercises struct {
	client *Client
	cache  *Cache[[]Exercise]
}

const rapidAPIHost = "exercisedb.p.rapidapi.com"

var errExerciseKeyMissing = errors.New("exercisedb api key not configured")

func NewExercises(client *Client, ttl time.Duration) *Exercises {
	return &Exercises{client: client, cache: NewCache[[]Exercise](ttl, 500)}
}

func (e *Exercises) ByBodyPart(ctx context.Context, part string, limit int) (*ExerciseResult, error) {
	part = strings.ToLower(strings.TrimSpace(part))
	return e.cached(ctx, "/exercises/bodyPart/"+url.PathEscape(part), limit)
}

func (e *Exercises) SearchByName(ctx context.Context, name string, limit int) (*ExerciseResult, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	return e.cached(ctx, "/exercises/name/"+url.PathEscape(name), limit)
}

func (e *Exercises) BodyParts(ctx context.Context) ([]string, error) {
	var parts []string
	if err := e.client.GetJSON(ctx, "/exercises/bodyPartList", nil, e.headers(), &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

func (e *Exercises) headers() map[string]string {
	return map[string]string{"X-RapidAPI-Key": e.client.APIKey(), "X-RapidAPI-Host": rapidAPIHost}
}

func (e *Exercises) cached(ctx context.Context, path string, limit int) (*ExerciseResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	key := path + "?" + strconv.Itoa(limit)
	if list, fresh, ok := e.cache.Get(key); ok && fresh {
		return &ExerciseResult{Exercises: list}, nil
	}
	if e.client.APIKey() == "" {
		return nil, unavailable(e.client, errExerciseKeyMissing)
	}
	var list []Exercise
	err := e.client.GetJSON(ctx, path, url.Values{"limit": {strconv.Itoa(limit)}}, e.headers(), &list)
	if err != nil {
		if stale, _, ok := e.cache.Get(key); ok {
			return &ExerciseResult{Exercises: stale, Cached: true}, nil
		}
		return nil, err
	}
	e.cache.Set(key, list)
	return &ExerciseResult{Exercises: list}, nil
}
