package api

import (
	"github.com/prentissw/chartedroots/internal/canvas"
	"github.com/prentissw/chartedroots/internal/exportservice"
	"github.com/prentissw/chartedroots/internal/timeline"
	"github.com/prentissw/chartedroots/internal/timelineservice"
)

// ExportRequest is the request body for exporting a timeline. Options not
// given fall back to the server defaults.
type ExportRequest struct {
	Path    string           `json:"path" example:"Timelines/family.canvas" validate:"required"`
	Options timeline.Options `json:"options"`
	Filters timeline.Filters `json:"filters"`
}

// RegenerateRequest is the optional request body for regenerating a timeline.
type RegenerateRequest struct {
	Overrides *canvas.StyleOverrides `json:"overrides,omitempty"`
}

// ExportResult is the outcome of an export or regeneration (aliased from the domain layer).
type ExportResult = exportservice.Result

// EventItem is an event in a list response (aliased from the domain layer).
type EventItem = timelineservice.EventItem

// EventListResponse wraps event listings.
type EventListResponse struct {
	Events []EventItem `json:"events" validate:"required"`
	Total  int         `json:"total" example:"42" validate:"required"`
}

// TimelineItem is a timeline in a list response (aliased from the domain layer).
type TimelineItem = timelineservice.TimelineItem

// TimelineListResponse wraps timeline listings.
type TimelineListResponse struct {
	Timelines []TimelineItem `json:"timelines" validate:"required"`
}

// RegenerateAllResponse wraps the per-document results of a bulk regeneration.
type RegenerateAllResponse struct {
	Results []ExportResult `json:"results" validate:"required"`
}
