// Package timeline turns a set of events into a positioned node/edge graph:
// chronological ordering, color classification, layout strategies, and
// graph building. Everything here is pure and synchronous; I/O lives in the
// callers.
package timeline

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/prentissw/chartedroots/internal/parser"
)

// Confidence is the evidential weight recorded on an event.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

// ParseConfidence maps free text to a Confidence, defaulting to unknown.
func ParseConfidence(s string) Confidence {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	default:
		return ConfidenceUnknown
	}
}

// Event is an immutable input record. References in Before/After are keys
// of other events (their ID or Path).
type Event struct {
	ID           string     `json:"id"`
	Path         string     `json:"path"`
	Title        string     `json:"title"`
	Date         string     `json:"date,omitempty"`
	DateEnd      string     `json:"dateEnd,omitempty"`
	EventType    string     `json:"eventType,omitempty"`
	Confidence   Confidence `json:"confidence,omitempty"`
	Category     string     `json:"category,omitempty"`
	Principal    string     `json:"principal,omitempty"`
	Participants []string   `json:"participants,omitempty"`
	Place        string     `json:"place,omitempty"`
	Before       []string   `json:"before,omitempty"`
	After        []string   `json:"after,omitempty"`
	SortOrder    *int       `json:"sortOrder,omitempty"`
	Groups       []string   `json:"groups,omitempty"`
}

// Key returns the identity used to resolve references to this event.
func (e Event) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Path
}

// Year returns the event's year when its date is parseable.
func (e Event) Year() (int, bool) {
	return ParseYear(e.Date)
}

// Dated reports whether the event has a parseable date.
func (e Event) Dated() bool {
	_, ok := e.Year()
	return ok
}

// PersonRef returns the reference used for row grouping: the principal when
// set, otherwise the first participant.
func (e Event) PersonRef() string {
	if p := strings.TrimSpace(e.Principal); p != "" {
		return p
	}
	for _, p := range e.Participants {
		if p = strings.TrimSpace(p); p != "" {
			return p
		}
	}
	return ""
}

// PositionedEvent is an event after layout.
type PositionedEvent struct {
	Event
	X      int
	Y      int
	NodeID string
	// Index is the event's position in the chronological order.
	Index int
}

// ParseYear returns the year formed by the first four characters of date.
func ParseYear(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0, false
	}
	for i := 0; i < 4; i++ {
		if date[i] < '0' || date[i] > '9' {
			return 0, false
		}
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

// FractionalYear returns year + month/12 + day/365 for dates shaped like
// YYYY, YYYY-MM or YYYY-MM-DD. Missing or malformed parts contribute zero.
func FractionalYear(date string) (float64, bool) {
	year, ok := ParseYear(date)
	if !ok {
		return 0, false
	}
	date = strings.TrimSpace(date)
	v := float64(year)
	if month, ok := datePart(date, 5); ok && month >= 1 && month <= 12 {
		v += float64(month) / 12
		if day, ok := datePart(date, 8); ok && day >= 1 && day <= 31 {
			v += float64(day) / 365
		}
	}
	return v, true
}

// datePart reads the two digits at offset, which must follow a '-'.
func datePart(date string, offset int) (int, bool) {
	if len(date) < offset+2 || date[offset-1] != '-' {
		return 0, false
	}
	n, err := strconv.Atoi(date[offset : offset+2])
	if err != nil {
		return 0, false
	}
	return n, true
}

// PersonResolver resolves a person reference to a display name and, when
// known, the person's note path.
type PersonResolver interface {
	ResolvePerson(ref string) (name, path string, ok bool)
}

// PersonName resolves ref through r, falling back to the link text. The
// result is NFC-normalised.
func PersonName(r PersonResolver, ref string) string {
	if ref == "" {
		return ""
	}
	if r != nil {
		if name, _, ok := r.ResolvePerson(ref); ok && name != "" {
			return norm.NFC.String(name)
		}
	}
	return norm.NFC.String(parser.LinkDisplay(ref))
}

// EventSet is the collaborator's view of the vault at one point in time: the
// resolved events and the resolver for the person references they carry.
type EventSet struct {
	Events  []Event
	Persons PersonResolver
}
