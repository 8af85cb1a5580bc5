package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dayblocks/internal/apperr"
	"github.com/starford/dayblocks/internal/checksum"
	"github.com/starford/dayblocks/internal/ledger"
)

const maxDayBody = 1 << 20

// Handler holds the time-block route handlers.
type Handler struct {
	svc ledger.Ledger
}

// NewHandler creates a new Handler.
func NewHandler(svc ledger.Ledger) *Handler {
	return &Handler{svc: svc}
}

// GetDay handles GET /api/time-blocks/date/{date}.
//
//	@Summary		Get the 96 slots of a day
//	@Tags			time-blocks
//	@Produce		json
//	@Param			date			path		string	true	"Date (YYYY-MM-DD)"
//	@Param			If-None-Match	header		string	false	"ETag of a cached copy"
//	@Success		200				{array}		TimeBlock
//	@Success		304				"Not modified"
//	@Failure		400				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/time-blocks/date/{date} [get]
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	day, err := h.svc.GetDay(r.Context(), userID(r), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, "get day", err)
		return
	}
	body, err := json.Marshal(day)
	if err != nil {
		writeError(w, "get day", err)
		return
	}

	etag := checksum.ETag(body)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// ReplaceDay handles PUT /api/time-blocks/date/{date}.
//
//	@Summary		Replace every slot of a day
//	@Tags			time-blocks
//	@Accept			json
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Param			body	body		[]Slot	true	"Exactly 96 slots"
//	@Success		200		{object}	ReplaceDayResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/time-blocks/date/{date} [put]
func (h *Handler) ReplaceDay(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDayBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	slots, err := ledger.DecodeSlots(body)
	if err != nil {
		writeError(w, "replace day", err)
		return
	}

	res, err := h.svc.ReplaceDay(r.Context(), userID(r), chi.URLParam(r, "date"), slots)
	if err != nil {
		writeError(w, "replace day", err)
		return
	}
	writeJSON(w, http.StatusOK, ReplaceDayResponse{
		OK:       true,
		Inserted: res.Inserted,
		Fallback: res.Fallback,
		Skipped:  res.Skipped,
	})
}

// UpdateNote handles PUT /api/time-blocks/date/{date}/block/{blockIndex}/note.
//
//	@Summary		Set the note of one slot
//	@Tags			time-blocks
//	@Accept			json
//	@Produce		json
//	@Param			date		path		string		true	"Date (YYYY-MM-DD)"
//	@Param			blockIndex	path		int			true	"Slot index 0..95"
//	@Param			body		body		NoteRequest	true	"Note text"
//	@Success		200			{object}	TimeBlock
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/time-blocks/date/{date}/block/{blockIndex}/note [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "blockIndex"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("blockIndex must be an integer"))
		return
	}
	var req NoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDayBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	block, err := h.svc.UpsertNote(r.Context(), userID(r), chi.URLParam(r, "date"), index, req.Note)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

// Stats handles GET /api/time-blocks/stats.
//
//	@Summary		Dominant color of every tracked day
//	@Tags			time-blocks
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/time-blocks/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), userID(r))
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse(stats))
}

// GetSummary handles GET /api/time-blocks/summary/{date}.
//
//	@Summary		Get the summary of a day
//	@Tags			summaries
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	SummaryResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/time-blocks/summary/{date} [get]
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.GetSummary(r.Context(), userID(r), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, "get summary", err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Content: sum.Content, Rating: sum.Rating})
}

// PutSummary handles PUT /api/time-blocks/summary/{date}.
//
//	@Summary		Write the summary of a day
//	@Tags			summaries
//	@Accept			json
//	@Produce		json
//	@Param			date	path		string			true	"Date (YYYY-MM-DD)"
//	@Param			body	body		SummaryRequest	true	"Content and 0..5 rating"
//	@Success		200		{object}	SummaryResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/time-blocks/summary/{date} [put]
func (h *Handler) PutSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDayBody)).Decode(&req); err != nil {
		writeError(w, "put summary", apperr.Validation("invalid JSON body"))
		return
	}
	sum, err := h.svc.PutSummary(r.Context(), userID(r), chi.URLParam(r, "date"), req.Content, req.Rating)
	if err != nil {
		writeError(w, "put summary", err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Content: sum.Content, Rating: sum.Rating})
}
