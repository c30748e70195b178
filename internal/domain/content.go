package domain

import "fmt"

// ContentType tags the forum rows a vote may reference.
type ContentType string

const (
	ContentThread     ContentType = ObjectThread
	ContentComment    ContentType = ObjectComment
	ContentSubcomment ContentType = ObjectSubcomment
)

func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentThread, ContentComment, ContentSubcomment:
		return ContentType(s), nil
	}
	return "", Invalid(fmt.Sprintf("content_type must be thread, comment or subcomment, got %q", s))
}

// ContentRef identifies one votable row.
type ContentRef struct {
	Type ContentType `json:"content_type"`
	ID   uint        `json:"object_id"`
}

func (r ContentRef) String() string { return fmt.Sprintf("%s:%d", r.Type, r.ID) }

func ValidVoteType(s string) bool { return s == VoteUp || s == VoteDown }
