package services

import (
	"context"
	"fmt"

	"github.com/chainproof-io/chainproof/internal/models"
)

type subjectContextKey struct{}

// WithSubject returns a context carrying the authenticated subject ID. The
// function entrypoints call this after the API gateway's identity header (or
// the upload path's owner segment, for event-triggered runs) has been
// resolved.
func WithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subjectID)
}

// ContextSubjectProvider resolves the subject placed on the request context.
// It fails closed: a missing or empty subject is ErrUnauthenticated.
type ContextSubjectProvider struct{}

func (ContextSubjectProvider) CurrentSubject(ctx context.Context) (Subject, error) {
	id, _ := ctx.Value(subjectContextKey{}).(string)
	if id == "" {
		return Subject{}, fmt.Errorf("request context carries no subject: %w", models.ErrUnauthenticated)
	}
	return Subject{ID: id}, nil
}
