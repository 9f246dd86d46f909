package timeline

import (
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// PaletteSlot is one of the renderer's fixed preset colors. The zero value
// means "no color" (renderer default).
type PaletteSlot string

// Palette slots, encoded the way canvas documents store preset colors.
const (
	SlotNone   PaletteSlot = ""
	SlotRed    PaletteSlot = "1"
	SlotOrange PaletteSlot = "2"
	SlotYellow PaletteSlot = "3"
	SlotGreen  PaletteSlot = "4"
	SlotBlue   PaletteSlot = "5"
	SlotPurple PaletteSlot = "6"
)

// ColorScheme selects which event attribute drives node color.
type ColorScheme string

// Color schemes.
const (
	SchemeEventType  ColorScheme = "event_type"
	SchemeCategory   ColorScheme = "category"
	SchemeConfidence ColorScheme = "confidence"
	SchemeMonochrome ColorScheme = "monochrome"
)

// EventType is a registry entry for an event type id.
type EventType struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Color    string `json:"color" yaml:"color"`
	Category string `json:"category" yaml:"category"`
	Icon     string `json:"icon,omitempty" yaml:"icon"`
}

// TypeRegistry looks up event types by id.
type TypeRegistry interface {
	Lookup(id string) (EventType, bool)
}

var confidenceSlots = map[Confidence]PaletteSlot{
	ConfidenceHigh:    SlotGreen,
	ConfidenceMedium:  SlotYellow,
	ConfidenceLow:     SlotOrange,
	ConfidenceUnknown: SlotRed,
}

var categorySlots = map[string]PaletteSlot{
	"core":      SlotGreen,
	"extended":  SlotBlue,
	"narrative": SlotPurple,
	"custom":    SlotOrange,
}

// hueRanges are half-open [from, to) degree ranges; red wraps through 0.
var hueRanges = []struct {
	from, to float64
	slot     PaletteSlot
}{
	{330, 15, SlotRed},
	{15, 45, SlotOrange},
	{45, 75, SlotYellow},
	{75, 165, SlotGreen},
	{165, 260, SlotBlue},
	{260, 330, SlotPurple},
}

// Classifier assigns palette slots to events.
type Classifier struct {
	types TypeRegistry
}

// NewClassifier creates a Classifier backed by the given registry, which may
// be nil.
func NewClassifier(types TypeRegistry) *Classifier {
	return &Classifier{types: types}
}

// Classify returns the palette slot for e under scheme.
func (c *Classifier) Classify(e Event, scheme ColorScheme) PaletteSlot {
	switch scheme {
	case SchemeConfidence:
		if slot, ok := confidenceSlots[ParseConfidence(string(e.Confidence))]; ok {
			return slot
		}
		return SlotRed
	case SchemeCategory:
		category := e.Category
		if category == "" {
			if t, ok := c.lookup(e.EventType); ok {
				category = t.Category
			}
		}
		if slot, ok := categorySlots[strings.ToLower(category)]; ok {
			return slot
		}
		return SlotOrange
	case SchemeEventType:
		if t, ok := c.lookup(e.EventType); ok {
			return HexSlot(t.Color)
		}
		return SlotOrange
	default:
		return SlotNone
	}
}

func (c *Classifier) lookup(id string) (EventType, bool) {
	if c == nil || c.types == nil || id == "" {
		return EventType{}, false
	}
	return c.types.Lookup(id)
}

// HexSlot buckets an authored hex color by hue. Unparseable colors fall back
// to orange.
func HexSlot(hex string) PaletteSlot {
	hex = strings.TrimSpace(hex)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	col, err := colorful.Hex(hex)
	if err != nil {
		return SlotOrange
	}
	h, _, _ := col.Hsl()
	return HueSlot(h)
}

// HueSlot buckets a hue in degrees. Each range includes its lower bound.
func HueSlot(h float64) PaletteSlot {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return SlotOrange
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	for _, r := range hueRanges {
		if r.from > r.to {
			if h >= r.from || h < r.to {
				return r.slot
			}
			continue
		}
		if h >= r.from && h < r.to {
			return r.slot
		}
	}
	return SlotOrange
}
