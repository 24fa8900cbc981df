package admin

import "github.com/facturio/internal/provider"

// Handler serves the back-office routes.
type Handler struct {
	*provider.Container
}

// New creates the admin handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
