package services

import (
	"context"
	"strings"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// isPlayerIdentity reports whether an identity string refers to a real
// persistent player. World-spawned and map-placed resources carry an empty or
// zero owner and are never protected.
func isPlayerIdentity(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != "0"
}
