package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fitcommunity/config"
	"fitcommunity/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(name, baseURL, key string) *Client {
	return NewClient(name, config.ServiceConfig{BaseURL: baseURL, APIKey: key, Timeout: time.Second}, "fit-test/1.0")
}

func TestNominatimGeocode(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "fit-test/1.0", r.Header.Get("User-Agent"))
		switch r.URL.Query().Get("q") {
		case "Nairobi":
			fmt.Fprint(w, `[{"lat":"-1.2864","lon":"36.8172"}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer srv.Close()
	g := NewNominatim(testClient("geocoder", srv.URL, ""), time.Hour)

	p, err := g.Geocode(context.Background(), "Nairobi")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.InDelta(t, -1.2864, p.Lat, 1e-9)
	assert.InDelta(t, 36.8172, p.Lng, 1e-9)

	// cached by normalized text
	_, err = g.Geocode(context.Background(), "  nairobi ")
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	p, err = g.Geocode(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNominatimFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	g := NewNominatim(testClient("geocoder", srv.URL, ""), time.Hour)

	_, err := g.Geocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamUnavailable, domain.KindOf(err))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := testClient("flaky", srv.URL, "")

	var out any
	for i := 0; i < 5; i++ {
		err := c.GetJSON(context.Background(), "/", nil, nil, &out)
		assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	}
	err := c.GetJSON(context.Background(), "/", nil, nil, &out)
	assert.Equal(t, domain.KindUpstreamUnavailable, domain.KindOf(err))
	assert.EqualValues(t, 5, calls.Load())
	assert.Equal(t, "open", c.State())
}

func TestTimeoutClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	c := NewClient("slow", config.ServiceConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, "")
	var out any
	err := c.GetJSON(context.Background(), "/", nil, nil, &out)
	assert.Equal(t, domain.KindUpstreamTimeout, domain.KindOf(err))
}

func TestQuotesFallBack(t *testing.T) {
	up := atomic.Bool{}
	up.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `[{"q":"Keep going.","a":"Coach"}]`)
	}))
	defer srv.Close()

	// zero ttl forces a refresh on every call
	q := NewQuotes(testClient("quotes", srv.URL, ""), 0)
	f := q.Random(context.Background())
	assert.Equal(t, Fact{Text: "Keep going.", Author: "Coach"}, f)

	up.Store(false)
	f = q.Random(context.Background())
	assert.Equal(t, "Keep going.", f.Text)
	assert.True(t, f.Cached)

	// nothing cached yet: built-in default
	cold := NewQuotes(testClient("quotes-cold", srv.URL, ""), 0)
	f = cold.Random(context.Background())
	assert.NotEmpty(t, f.Text)
	assert.True(t, f.Cached)
}

func TestExercisesStaleOnFailure(t *testing.T) {
	up := atomic.Bool{}
	up.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("X-RapidAPI-Key"))
		if !up.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `[{"id":"1","name":"push up","bodyPart":"chest","target":"pectorals","equipment":"body weight"}]`)
	}))
	defer srv.Close()
	e := NewExercises(testClient("exercisedb", srv.URL, "k"), 0)

	res, err := e.ByBodyPart(context.Background(), "Chest", 10)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	require.Len(t, res.Exercises, 1)

	up.Store(false)
	res, err = e.ByBodyPart(context.Background(), "chest", 10)
	require.NoError(t, err)
	assert.True(t, res.Cached)

	_, err = e.SearchByName(context.Background(), "squat", 10)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestGifsRequireKey(t *testing.T) {
	g := NewGifs(testClient("gifs", "http://127.0.0.1:1", ""))
	_, err := g.Search(context.Background(), "deadlift", 5)
	assert.Equal(t, domain.KindUpstreamUnavailable, domain.KindOf(err))
}

func llmServer(t *testing.T, replies ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		n := int(calls.Add(1)) - 1
		if n >= len(replies) {
			n = len(replies) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, replies[n])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSuggestGoalsRetriesMalformed(t *testing.T) {
	good := "```json\n[{\"title\":\"Run 5k\",\"description\":\"\",\"goal_type\":\"cardio\",\"target_value\":5,\"unit\":\"km\",\"duration_days\":30}]\n```"
	srv, calls := llmServer(t, "Sure! Here are some goals", good)
	l := NewLLM(testClient("llm", srv.URL, "sk-test"), "test-model", 3)

	out, err := l.SuggestGoals(context.Background(), "beginner runner")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Run 5k", out[0].Title)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSuggestGoalsGivesUp(t *testing.T) {
	srv, calls := llmServer(t, "not json")
	l := NewLLM(testClient("llm", srv.URL, "sk-test"), "test-model", 3)

	_, err := l.SuggestGoals(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedLLMOutput)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	assert.EqualValues(t, 3, calls.Load())
}

func TestTutor(t *testing.T) {
	srv, _ := llmServer(t, "Warm up first.")
	l := NewLLM(testClient("llm", srv.URL, "sk-test"), "test-model", 3)
	answer, err := l.Tutor(context.Background(), "How do I squat?")
	require.NoError(t, err)
	assert.Equal(t, "Warm up first.", answer)
}
