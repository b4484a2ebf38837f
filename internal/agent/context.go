// ABOUTME: Caller identity propagated through ctx into ToolExecutor.Execute, for handlers that need it (agent send/create)
// ABOUTME: Keeps the Execute signature free of an explicit sender parameter most tools never use

package agent

import "context"

type callerIDKey struct{}
type callerNameKey struct{}

// WithCaller annotates ctx with the invoking agent's identity.
func WithCaller(ctx context.Context, id int64, name string) context.Context {
	ctx = context.WithValue(ctx, callerIDKey{}, id)
	ctx = context.WithValue(ctx, callerNameKey{}, name)
	return ctx
}

// CallerID extracts the invoking agent's ID from ctx, set by the turn loop
// before every ToolExecutor.Execute call. Returns (0, false) outside that
// path (e.g. a direct unit-test call).
func CallerID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(callerIDKey{}).(int64)
	return id, ok
}

// CallerName extracts the invoking agent's Name from ctx.
func CallerName(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(callerNameKey{}).(string)
	return name, ok
}
