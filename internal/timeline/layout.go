package timeline

import (
	"math"
	"slices"
	"strings"
)

// PixelsPerYear is the Gantt time-axis scale.
const PixelsPerYear = 150

// GanttFallbackWarning is reported when a Gantt layout has no dated events.
const GanttFallbackWarning = "No events have parseable dates; Gantt layout fell back to horizontal"

// Strategy assigns coordinates to events that are already in chronological
// order. Implementations are deterministic for identical input.
type Strategy interface {
	Place(events []Event) []PositionedEvent
}

// Geometry is the node footprint and spacing shared by every strategy.
type Geometry struct {
	NodeWidth  int
	NodeHeight int
	SpacingX   int
	SpacingY   int
}

func geometryOf(o Options) Geometry {
	return Geometry{
		NodeWidth:  o.NodeWidth,
		NodeHeight: o.NodeHeight,
		SpacingX:   o.SpacingX,
		SpacingY:   o.SpacingY,
	}
}

// Layout selects the strategy for opts and places events. The returned
// warnings are non-fatal (e.g. the Gantt fallback).
func Layout(events []Event, opts Options, persons PersonResolver) ([]PositionedEvent, []string) {
	geo := geometryOf(opts)
	var s Strategy
	var warnings []string

	switch {
	case opts.LayoutStyle == LayoutGantt:
		if !slices.ContainsFunc(events, Event.Dated) {
			warnings = append(warnings, GanttFallbackWarning)
			s = Linear{Geometry: geo}
			break
		}
		s = Gantt{Geometry: geo, Persons: persons}
	case opts.GroupByPerson:
		s = Grouped{Geometry: geo, Vertical: opts.vertical(), Persons: persons}
	default:
		s = Linear{Geometry: geo, Vertical: opts.vertical()}
	}
	return s.Place(events), warnings
}

// Linear lays events out in one row (or column when Vertical).
type Linear struct {
	Geometry
	Vertical bool
}

// Place implements Strategy.
func (l Linear) Place(events []Event) []PositionedEvent {
	out := make([]PositionedEvent, len(events))
	for i, e := range events {
		out[i] = PositionedEvent{Event: e, Index: i}
		if l.Vertical {
			out[i].Y = i * (l.NodeHeight + l.SpacingY)
		} else {
			out[i].X = i * (l.NodeWidth + l.SpacingX)
		}
	}
	return out
}

// Grouped lays each person's events out linearly, one band per person.
type Grouped struct {
	Geometry
	Vertical bool
	Persons  PersonResolver
}

// Place implements Strategy.
func (g Grouped) Place(events []Event) []PositionedEvent {
	out := make([]PositionedEvent, 0, len(events))
	offset := 0
	for _, b := range personBuckets(indexed(events), g.Persons) {
		out, offset = g.placeBucket(out, b.events, offset)
	}
	return out
}

// placeBucket appends one band at offset and returns the next band's offset.
func (g Grouped) placeBucket(acc []PositionedEvent, bucket []PositionedEvent, offset int) ([]PositionedEvent, int) {
	for i, pe := range bucket {
		if g.Vertical {
			pe.X, pe.Y = offset, i*(g.NodeHeight+g.SpacingY)
		} else {
			pe.X, pe.Y = i*(g.NodeWidth+g.SpacingX), offset
		}
		acc = append(acc, pe)
	}
	if g.Vertical {
		return acc, offset + g.NodeWidth + 2*g.SpacingX
	}
	return acc, offset + g.NodeHeight + 2*g.SpacingY
}

// Gantt places events on a time axis (x) with one row per person (y).
// Dated events without a person share a row after the named rows; undated
// events fill a final row in sequence.
type Gantt struct {
	Geometry
	Persons PersonResolver
}

// Place implements Strategy.
func (g Gantt) Place(events []Event) []PositionedEvent {
	all := indexed(events)
	var dated, undated []PositionedEvent
	minYear := math.MaxInt
	for _, pe := range all {
		if y, ok := pe.Year(); ok {
			dated = append(dated, pe)
			minYear = min(minYear, y)
			continue
		}
		undated = append(undated, pe)
	}

	rowHeight := g.NodeHeight + g.SpacingY
	out := make([]PositionedEvent, 0, len(events))
	row := 0
	for _, b := range personBuckets(dated, g.Persons) {
		for _, pe := range b.events {
			frac, _ := FractionalYear(pe.Date)
			pe.X = int(math.Round((frac - float64(minYear)) * PixelsPerYear))
			pe.Y = row * rowHeight
			out = append(out, pe)
		}
		row++
	}
	for i, pe := range undated {
		pe.X = i * (g.NodeWidth + g.SpacingX)
		pe.Y = row * rowHeight
		out = append(out, pe)
	}
	return out
}

type bucket struct {
	key    string
	events []PositionedEvent
}

// personBuckets partitions events by resolved person name. Buckets are
// ordered alphabetically with the no-person bucket last; events keep their
// input order inside a bucket.
func personBuckets(events []PositionedEvent, persons PersonResolver) []bucket {
	var named []bucket
	var nobody []PositionedEvent
	pos := make(map[string]int)
	for _, pe := range events {
		key := PersonName(persons, pe.PersonRef())
		if key == "" {
			nobody = append(nobody, pe)
			continue
		}
		i, ok := pos[key]
		if !ok {
			i = len(named)
			pos[key] = i
			named = append(named, bucket{key: key})
		}
		named[i].events = append(named[i].events, pe)
	}
	slices.SortStableFunc(named, func(a, b bucket) int {
		if c := strings.Compare(strings.ToLower(a.key), strings.ToLower(b.key)); c != 0 {
			return c
		}
		return strings.Compare(a.key, b.key)
	})
	if len(nobody) > 0 {
		named = append(named, bucket{events: nobody})
	}
	return named
}

func indexed(events []Event) []PositionedEvent {
	out := make([]PositionedEvent, len(events))
	for i, e := range events {
		out[i] = PositionedEvent{Event: e, Index: i}
	}
	return out
}
