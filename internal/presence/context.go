package presence

import "context"

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const connectionKey contextKey = "connection"

// WithConnection attaches the calling connection to the context so
// handlers can resolve who issued a request.
func WithConnection(ctx context.Context, conn *Connection) context.Context {
	return context.WithValue(ctx, connectionKey, conn)
}

func ConnectionFromContext(ctx context.Context) (*Connection, bool) {
	conn, ok := ctx.Value(connectionKey).(*Connection)

	return conn, ok
}
