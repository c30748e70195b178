package service

import (
	"context"
	"strings"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/upstream"
)

const maxPromptLen = 2000

type factSource interface {
	Random(ctx context.Context) upstream.Fact
}

type gifSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]upstream.Gif, error)
}

type exerciseLookup interface {
	ByBodyPart(ctx context.Context, part string, limit int) (*upstream.ExerciseResult, error)
	SearchByName(ctx context.Context, name string, limit int) (*upstream.ExerciseResult, error)
	BodyParts(ctx context.Context) ([]string, error)
}

type coach interface {
	Tutor(ctx context.Context, question string) (string, error)
	Advice(ctx context.Context, topic string) (string, error)
}

// AssistantService fronts the third-party content APIs.
type AssistantService struct {
	quotes    factSource
	catFacts  factSource
	gifs      gifSearcher
	exercises exerciseLookup
	llm       coach
}

func NewAssistantService(quotes, catFacts factSource, gifs gifSearcher, exercises exerciseLookup, llm coach) *AssistantService {
	return &AssistantService{quotes: quotes, catFacts: catFacts, gifs: gifs, exercises: exercises, llm: llm}
}

func (s *AssistantService) Quote(ctx context.Context) upstream.Fact {
	return s.quotes.Random(ctx)
}

func (s *AssistantService) CatFact(ctx context.Context) upstream.Fact {
	return s.catFacts.Random(ctx)
}

func (s *AssistantService) Gifs(ctx context.Context, query string, limit int) ([]upstream.Gif, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Invalid("q is required")
	}
	return s.gifs.Search(ctx, query, limit)
}

// Exercises looks up by body part when given, otherwise by name.
func (s *AssistantService) Exercises(ctx context.Context, bodyPart, name string, limit int) (*upstream.ExerciseResult, error) {
	switch {
	case strings.TrimSpace(bodyPart) != "":
		return s.exercises.ByBodyPart(ctx, bodyPart, limit)
	case strings.TrimSpace(name) != "":
		return s.exercises.SearchByName(ctx, name, limit)
	default:
		return nil, domain.Invalid("body_part or name is required")
	}
}

func (s *AssistantService) BodyParts(ctx context.Context) ([]string, error) {
	return s.exercises.BodyParts(ctx)
}

func prompt(field, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.Validation("invalid input", map[string]string{field: "is required"})
	}
	if len(text) > maxPromptLen {
		return "", domain.Validation("invalid input", map[string]string{field: "is too long"})
	}
	return text, nil
}

func (s *AssistantService) Tutor(ctx context.Context, question string) (string, error) {
	q, err := prompt("question", question)
	if err != nil {
		return "", err
	}
	return s.llm.Tutor(ctx, q)
}

func (s *AssistantService) Advice(ctx context.Context, topic string) (string, error) {
	t, err := prompt("topic", topic)
	if err != nil {
		return "", err
	}
	return s.llm.Advice(ctx, t)
}
