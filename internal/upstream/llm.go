package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/logging"

	"github.com/goccy/go-json"
)

// ErrMalformedLLMOutput is wrapped when the model never produced parseable JSON.
var ErrMalformedLLMOutput = errors.New("llm returned malformed JSON")

var errLLMKeyMissing = errors.New("llm api key not configured")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GoalSuggestion is one LLM-proposed fitness goal.
type GoalSuggestion struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	GoalType     string  `json:"goal_type"`
	TargetValue  float64 `json:"target_value"`
	Unit         string  `json:"unit"`
	DurationDays int     `json:"duration_days"`
}

// LLM talks to an OpenAI-compatible chat completions endpoint.
type LLM struct {
	client   *Client
	model    string
	attempts int
}

func NewLLM(client *Client, model string, attempts int) *LLM {
	if attempts < 1 {
		attempts = 1
	}
	return &LLM{client: client, model: model, attempts: attempts}
}

const (
	tutorPrompt  = "You are a certified personal trainer. Answer fitness questions clearly and safely in under 200 words."
	advicePrompt = "You are a supportive fitness and wellness coach. Give practical, safe advice in under 200 words."
	goalPrompt   = `You suggest fitness goals. Reply with ONLY a JSON array of 3 objects with keys ` +
		`"title", "description", "goal_type", "target_value" (number), "unit", "duration_days" (integer). No prose.`
)

func (l *LLM) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if l.client.APIKey() == "" {
		return "", unavailable(l.client, errLLMKeyMissing)
	}
	body, err := l.client.PostJSON(ctx, "/chat/completions", chatRequest{
		Model:       l.model,
		Messages:    []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}},
		Temperature: temperature,
	}, map[string]string{"Authorization": "Bearer " + l.client.APIKey()})
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := l.client.decode(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", domain.Upstream(l.client.Name(), errors.New("no choices in response"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Tutor answers a fitness question.
func (l *LLM) Tutor(ctx context.Context, question string) (string, error) {
	return l.complete(ctx, tutorPrompt, question, 0.4)
}

// Advice gives coaching advice on a topic.
func (l *LLM) Advice(ctx context.Context, topic string) (string, error) {
	return l.complete(ctx, advicePrompt, topic, 0.7)
}

// SuggestGoals asks for goal suggestions and retries when the answer is not a
// JSON array. Transport failures are returned immediately.
func (l *LLM) SuggestGoals(ctx context.Context, profile string) ([]GoalSuggestion, error) {
	var lastErr error
	for attempt := 1; attempt <= l.attempts; attempt++ {
		text, err := l.complete(ctx, goalPrompt, profile, 0.7)
		if err != nil {
			return nil, err
		}
		out, err := parseSuggestions(text)
		if err == nil {
			return out, nil
		}
		lastErr = err
		logging.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Msg("llm goal suggestions unparseable, retrying")
	}
	return nil, domain.Upstream(l.client.Name(), fmt.Errorf("%w after %d attempts: %v", ErrMalformedLLMOutput, l.attempts, lastErr))
}

func parseSuggestions(text string) ([]GoalSuggestion, error) {
	text = stripFences(text)
	var out []GoalSuggestion
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("empty suggestion list")
	}
	for i, s := range out {
		if strings.TrimSpace(s.Title) == "" || s.TargetValue <= 0 {
			return nil, fmt.Errorf("suggestion %d missing title or positive target_value", i)
		}
	}
	return out, nil
}

// stripFences removes a surrounding ```json ... ``` block, which models add despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
