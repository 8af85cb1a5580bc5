package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dayblocks/internal/ledger"
	"github.com/starford/dayblocks/internal/models"
)

// Reminders is the reminder operation set used by the handlers.
type Reminders interface {
	List(ctx context.Context, userID string) ([]models.Reminder, error)
	Create(ctx context.Context, userID, title, content string, at time.Time) (models.Reminder, error)
	Update(ctx context.Context, userID, id, title, content string, at time.Time) (models.Reminder, error)
	Delete(ctx context.Context, userID, id string) error
}

// Labels supplies the current color presets.
type Labels interface {
	Labels() []models.Label
}

// RouterConfig holds the dependencies of the API router. Reminders, Labels
// and Events are optional; their routes are mounted only when set.
type RouterConfig struct {
	Ledger    ledger.Ledger
	Reminders Reminders
	Labels    Labels
	Events    http.Handler
	Auth      AuthConfig
}

// NewRouter creates a chi router with all API routes mounted. Every route
// requires a resolved user id.
func NewRouter(cfg RouterConfig) chi.Router {
	h := NewHandler(cfg.Ledger)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.Auth))

	r.Route("/time-blocks", func(r chi.Router) {
		r.Get("/date/{date}", h.GetDay)
		r.Put("/date/{date}", h.ReplaceDay)
		r.Put("/date/{date}/block/{blockIndex}/note", h.UpdateNote)
		r.Get("/stats", h.Stats)
		r.Get("/summary/{date}", h.GetSummary)
		r.Put("/summary/{date}", h.PutSummary)
	})

	if cfg.Labels != nil {
		r.Get("/time-block-labels", labelsHandler(cfg.Labels))
	}

	if cfg.Reminders != nil {
		rh := NewReminderHandler(cfg.Reminders)
		r.Get("/reminders", rh.List)
		r.Post("/reminders", rh.Create)
		r.Put("/reminders/{id}", rh.Update)
		r.Delete("/reminders/{id}", rh.Delete)
	}

	// SSE endpoint (protected by same auth middleware).
	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
