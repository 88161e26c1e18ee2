package core

import "context"

// Context key for passing the launch ID to collaborators.
type contextKey string

const launchIDContextKey contextKey = "launchID"

func ContextWithLaunchID(ctx context.Context, launchID string) context.Context {
	return context.WithValue(ctx, launchIDContextKey, launchID)
}

func LaunchIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(launchIDContextKey).(string); ok {
		return id
	}
	return ""
}
