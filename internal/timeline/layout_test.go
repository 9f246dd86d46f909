package timeline

import (
	"math"
	"reflect"
	"testing"
)

type coord struct{ x, y int }

func coords(placed []PositionedEvent) map[string]coord {
	out := make(map[string]coord, len(placed))
	for _, pe := range placed {
		out[pe.Title] = coord{pe.X, pe.Y}
	}
	return out
}

func TestLayout_Linear(t *testing.T) {
	events := []Event{{Title: "A"}, {Title: "B"}, {Title: "C"}}

	placed, warnings := Layout(events, DefaultOptions(), nil)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	want := map[string]coord{"A": {0, 0}, "B": {250, 0}, "C": {500, 0}}
	if got := coords(placed); !reflect.DeepEqual(got, want) {
		t.Errorf("horizontal = %v, want %v", got, want)
	}

	opts := DefaultOptions()
	opts.LayoutStyle = LayoutVertical
	placed, _ = Layout(events, opts, nil)
	want = map[string]coord{"A": {0, 0}, "B": {0, 150}, "C": {0, 300}}
	if got := coords(placed); !reflect.DeepEqual(got, want) {
		t.Errorf("vertical = %v, want %v", got, want)
	}
}

func TestLayout_Deterministic(t *testing.T) {
	events := []Event{
		{Title: "A", Date: "1900", Principal: "[[Bob]]"},
		{Title: "B", Date: "1903-04-02", Principal: "[[Alice]]"},
		{Title: "C", Participants: []string{"[[Carol]]"}},
		{Title: "D"},
	}
	for _, style := range []LayoutStyle{LayoutHorizontal, LayoutVertical, LayoutGantt} {
		for _, grouped := range []bool{false, true} {
			opts := DefaultOptions()
			opts.LayoutStyle = style
			opts.GroupByPerson = grouped
			first, _ := Layout(events, opts, nil)
			second, _ := Layout(events, opts, nil)
			if !reflect.DeepEqual(first, second) {
				t.Errorf("%s grouped=%v: layouts differ", style, grouped)
			}
		}
	}
}

func TestLayout_GanttFallback(t *testing.T) {
	events := []Event{{Title: "X"}}

	gantt := DefaultOptions()
	gantt.LayoutStyle = LayoutGantt
	gotGantt, warnings := Layout(events, gantt, nil)

	gotLinear, _ := Layout(events, DefaultOptions(), nil)
	if !reflect.DeepEqual(coords(gotGantt), coords(gotLinear)) {
		t.Errorf("gantt fallback = %v, linear = %v", coords(gotGantt), coords(gotLinear))
	}
	if len(warnings) == 0 || warnings[0] != GanttFallbackWarning {
		t.Errorf("warnings = %v, want fallback warning", warnings)
	}
}

func TestGantt_Place(t *testing.T) {
	events := []Event{
		{Title: "A", Date: "1900", Principal: "[[Bob]]"},
		{Title: "B", Date: "1902-06", Principal: "[[Alice]]"},
		{Title: "N", Date: "1901"},
		{Title: "U"},
	}
	opts := DefaultOptions()
	opts.LayoutStyle = LayoutGantt
	placed, warnings := Layout(events, opts, nil)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	want := map[string]coord{
		"B": {375, 0},   // Alice row, 2.5 years after 1900
		"A": {0, 150},   // Bob row
		"N": {150, 300}, // no-person row
		"U": {0, 450},   // undated row
	}
	if got := coords(placed); !reflect.DeepEqual(got, want) {
		t.Errorf("gantt = %v, want %v", got, want)
	}
}

func TestGrouped_Place(t *testing.T) {
	events := []Event{
		{Title: "E1", Principal: "[[Bob]]"},
		{Title: "E2", Principal: "[[Alice]]"},
		{Title: "E3"},
		{Title: "E4", Participants: []string{"[[Alice]]"}},
	}
	opts := DefaultOptions()
	opts.GroupByPerson = true
	placed, _ := Layout(events, opts, nil)
	want := map[string]coord{
		"E2": {0, 0},
		"E4": {250, 0},
		"E1": {0, 200},
		"E3": {0, 400},
	}
	if got := coords(placed); !reflect.DeepEqual(got, want) {
		t.Errorf("grouped = %v, want %v", got, want)
	}
	for _, pe := range placed {
		if pe.Title == "E3" && pe.Index != 2 {
			t.Errorf("E3 index = %d, want chronological index 2", pe.Index)
		}
	}

	opts.LayoutStyle = LayoutVertical
	placed, _ = Layout(events, opts, nil)
	want = map[string]coord{
		"E2": {0, 0},
		"E4": {0, 150},
		"E1": {300, 0},
		"E3": {600, 0},
	}
	if got := coords(placed); !reflect.DeepEqual(got, want) {
		t.Errorf("grouped vertical = %v, want %v", got, want)
	}
}

type nameResolver map[string]string

func (r nameResolver) ResolvePerson(ref string) (string, string, bool) {
	name, ok := r[ref]
	return name, "People/" + name + ".md", ok
}

func TestGrouped_UsesResolvedNames(t *testing.T) {
	events := []Event{
		{Title: "A", Principal: "[[zed]]"},
		{Title: "B", Principal: "[[People/z1]]"},
	}
	persons := nameResolver{"[[zed]]": "Zed Smith", "[[People/z1]]": "Zed Smith"}
	opts := DefaultOptions()
	opts.GroupByPerson = true
	placed, _ := Layout(events, opts, persons)
	want := map[string]coord{"A": {0, 0}, "B": {250, 0}}
	if got := coords(placed); !reflect.DeepEqual(got, want) {
		t.Errorf("grouped = %v, want %v", got, want)
	}
}

func TestFractionalYear(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1900", 1900, true},
		{"1900-06", 1900.5, true},
		{"1900-06-15", 1900.5 + 15.0/365, true},
		{"1900-13-01", 1900, true},
		{"c. 1900", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := FractionalYear(tt.in)
		if ok != tt.ok || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("FractionalYear(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
