package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ReminderHandler holds the reminder route handlers.
type ReminderHandler struct {
	svc Reminders
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(svc Reminders) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

// List handles GET /api/reminders.
//
//	@Summary		List pending reminders ordered by time
//	@Tags			reminders
//	@Produce		json
//	@Success		200	{array}	Reminder
//	@Security		BearerAuth
//	@Router			/reminders [get]
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, "list reminders", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/reminders.
//
//	@Summary		Create a reminder
//	@Tags			reminders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReminderRequest	true	"Reminder"
//	@Success		201		{object}	Reminder
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reminders [post]
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ReminderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rem, err := h.svc.Create(r.Context(), userID(r), req.Title, req.Content, req.RemindTime)
	if err != nil {
		writeError(w, "create reminder", err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

// Update handles PUT /api/reminders/{id}.
//
//	@Summary		Replace a reminder
//	@Tags			reminders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Reminder id"
//	@Param			body	body		ReminderRequest	true	"Reminder"
//	@Success		200		{object}	Reminder
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reminders/{id} [put]
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ReminderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rem, err := h.svc.Update(r.Context(), userID(r), chi.URLParam(r, "id"), req.Title, req.Content, req.RemindTime)
	if err != nil {
		writeError(w, "update reminder", err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

// Delete handles DELETE /api/reminders/{id}.
//
//	@Summary		Delete a reminder
//	@Tags			reminders
//	@Param			id	path	string	true	"Reminder id"
//	@Success		204	"Reminder deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reminders/{id} [delete]
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete reminder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// labelsHandler handles GET /api/time-block-labels.
//
//	@Summary		List the color presets
//	@Tags			labels
//	@Produce		json
//	@Success		200	{array}	Label
//	@Security		BearerAuth
//	@Router			/time-block-labels [get]
func labelsHandler(src Labels) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, src.Labels())
	}
}
