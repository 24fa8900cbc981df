package public

import "github.com/facturio/internal/provider"

// Handler serves the client portal and gateway-facing routes.
type Handler struct {
	*provider.Container
}

// New creates the public handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
