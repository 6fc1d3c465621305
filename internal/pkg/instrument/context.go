package instrument

import "context"

type (
	correlationIDKey struct{}
	subjectIDKey     struct{}
)

// SetCorrelationID returns a child context carrying id.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the correlation id stored in ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// SetSubjectID records the authenticated subject for log enrichment.
func SetSubjectID(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectIDKey{}, subjectID)
}

func GetSubjectID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(subjectIDKey{}).(string)
	return id
}
