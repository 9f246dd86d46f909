package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/prentissw/chartedroots/internal/checksum"
	"github.com/prentissw/chartedroots/internal/exportservice"
	"github.com/prentissw/chartedroots/internal/timeline"
	"github.com/prentissw/chartedroots/internal/timelineservice"
)

const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *timelineservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *timelineservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. Timelines%2Ffamily.canvas).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListEvents handles GET /api/events.
//
//	@Summary		List events with optional filtering
//	@Tags			events
//	@Produce		json
//	@Param			person	query		string	false	"Person name or wikilink"
//	@Param			type	query		string	false	"Event type id"
//	@Param			group	query		string	false	"Group name"
//	@Success		200		{object}	EventListResponse
//	@Security		BearerAuth
//	@Router			/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := timeline.Filters{
		Person:    q.Get("person"),
		EventType: q.Get("type"),
		Group:     q.Get("group"),
	}
	items, err := h.svc.ListEvents(r.Context(), filters)
	if err != nil {
		slog.Error("list events failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, EventListResponse{Events: items, Total: len(items)})
}

// ListTimelines handles GET /api/timelines.
//
//	@Summary		List exported timeline canvases
//	@Tags			timelines
//	@Produce		json
//	@Success		200	{object}	TimelineListResponse
//	@Security		BearerAuth
//	@Router			/timelines [get]
func (h *Handler) ListTimelines(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListTimelines(r.Context())
	if err != nil {
		slog.Error("list timelines failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []TimelineItem{}
	}
	writeJSON(w, http.StatusOK, TimelineListResponse{Timelines: items})
}

// GetTimeline handles GET /api/timelines/*.
//
//	@Summary		Get a timeline canvas document
//	@Tags			timelines
//	@Produce		json
//	@Param			path			path	string	true	"Canvas path"
//	@Param			If-None-Match	header	string	false	"ETag from a previous response"
//	@Success		200	"Raw canvas document"
//	@Success		304	"Not modified"
//	@Failure		404	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timelines/{path} [get]
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.GetTimeline(r.Context(), path)
	if err != nil {
		writeError(w, "get timeline", path, err)
		return
	}

	w.Header().Set("ETag", checksum.ETag(doc.Checksum))
	if inm := r.Header.Get("If-None-Match"); inm != "" && checksum.MatchesETag(inm, doc.Checksum) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

// ExportTimeline handles POST /api/timelines.
//
//	@Summary		Export events to a timeline canvas
//	@Tags			timelines
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExportRequest	true	"Export target, options and filters"
//	@Success		201		{object}	ExportResult
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	ExportResult
//	@Security		BearerAuth
//	@Router			/timelines [post]
func (h *Handler) ExportTimeline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	req := ExportRequest{Options: h.svc.Exporter().Defaults()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	res := h.svc.Export(r.Context(), exportservice.ExportRequest{
		Path:    req.Path,
		Options: req.Options,
		Filters: req.Filters,
	})
	h.writeResult(w, res, http.StatusCreated)
}

// RegenerateTimeline handles POST /api/timelines/regenerate/*.
//
//	@Summary		Regenerate a timeline canvas from its stored settings
//	@Tags			timelines
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string				true	"Canvas path"
//	@Param			If-Match	header	string				false	"Checksum for optimistic concurrency"
//	@Param			body		body	RegenerateRequest	false	"Style overrides"
//	@Success		200		{object}	ExportResult
//	@Failure		404		{object}	ExportResult
//	@Failure		409		{object}	ExportResult
//	@Failure		422		{object}	ExportResult
//	@Security		BearerAuth
//	@Router			/timelines/regenerate/{path} [post]
func (h *Handler) RegenerateTimeline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	var req RegenerateRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
	}

	res := h.svc.Regenerate(r.Context(), exportservice.RegenerateRequest{
		Path:      path,
		Overrides: req.Overrides,
		IfMatch:   r.Header.Get("If-Match"),
	})
	h.writeResult(w, res, http.StatusOK)
}

// RegenerateAll handles POST /api/timelines/regenerate.
//
//	@Summary		Regenerate every indexed timeline canvas
//	@Tags			timelines
//	@Produce		json
//	@Success		200	{object}	RegenerateAllResponse
//	@Security		BearerAuth
//	@Router			/timelines/regenerate [post]
func (h *Handler) RegenerateAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.RegenerateAll(r.Context())
	if err != nil {
		slog.Error("regenerate all failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []ExportResult{}
	}
	writeJSON(w, http.StatusOK, RegenerateAllResponse{Results: results})
}

// DeleteTimeline handles DELETE /api/timelines/*.
//
//	@Summary		Delete a timeline canvas
//	@Tags			timelines
//	@Param			path	path	string	true	"Canvas path"
//	@Success		204		"Timeline deleted"
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timelines/{path} [delete]
func (h *Handler) DeleteTimeline(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteTimeline(r.Context(), path); err != nil {
		writeError(w, "delete timeline", path, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeResult(w http.ResponseWriter, res ExportResult, okStatus int) {
	if res.Success {
		w.Header().Set("ETag", checksum.ETag(res.Checksum))
		writeJSON(w, okStatus, res)
		return
	}
	status := statusFor(res.Err())
	if status == http.StatusInternalServerError {
		slog.Error("timeline write failed", slog.String("path", res.Path), slog.String("error", res.Error))
	}
	writeJSON(w, status, res)
}
