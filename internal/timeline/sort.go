package timeline

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CyclicConstraintError reports before/after references that cannot all be
// satisfied. Events lists the titles of the events on the cycle(s), Keys
// their reference keys, both in chronological primary order.
type CyclicConstraintError struct {
	Events []string
	Keys   []string
}

func (e *CyclicConstraintError) Error() string {
	return fmt.Sprintf("cyclic ordering constraints between events: %s", strings.Join(e.Events, ", "))
}

// Sort returns events in chronological order.
//
// The primary order compares sortOrder (events carrying one first), then the
// date string (undated last), then the title. Before/after references are
// then honoured by emitting, ahead of each event, every event it must follow
// that has not been emitted yet. References to unknown events are ignored.
//
// When the references form a cycle Sort still returns a complete order, in
// which some constraint on the cycle is violated, together with a
// *CyclicConstraintError naming the events involved.
func Sort(events []Event) ([]Event, error) {
	primary := slices.Clone(events)
	slices.SortStableFunc(primary, comparePrimary)

	g := newConstraintGraph(primary)
	out := make([]Event, 0, len(primary))
	for _, i := range g.emit() {
		out = append(out, primary[i])
	}

	if cyc := g.cycleMembers(); len(cyc) > 0 {
		err := &CyclicConstraintError{}
		for _, i := range cyc {
			err.Events = append(err.Events, primary[i].Title)
			err.Keys = append(err.Keys, primary[i].Key())
		}
		return out, err
	}
	return out, nil
}

func comparePrimary(a, b Event) int {
	switch {
	case a.SortOrder != nil && b.SortOrder != nil:
		if c := cmp.Compare(*a.SortOrder, *b.SortOrder); c != 0 {
			return c
		}
	case a.SortOrder != nil:
		return -1
	case b.SortOrder != nil:
		return 1
	}

	switch ad, bd := a.Dated(), b.Dated(); {
	case ad && bd:
		if c := strings.Compare(strings.TrimSpace(a.Date), strings.TrimSpace(b.Date)); c != 0 {
			return c
		}
	case ad:
		return -1
	case bd:
		return 1
	}

	return strings.Compare(norm.NFC.String(a.Title), norm.NFC.String(b.Title))
}

// constraintGraph is an arena of event indices with "must precede" edges.
type constraintGraph struct {
	n     int
	preds [][]int
	succs [][]int
}

func newConstraintGraph(ordered []Event) *constraintGraph {
	g := &constraintGraph{
		n:     len(ordered),
		preds: make([][]int, len(ordered)),
		succs: make([][]int, len(ordered)),
	}
	lookup := referenceIndex(ordered)
	seen := make(map[[2]int]struct{})
	add := func(from, to int) {
		if from == to {
			return
		}
		if _, dup := seen[[2]int{from, to}]; dup {
			return
		}
		seen[[2]int{from, to}] = struct{}{}
		g.succs[from] = append(g.succs[from], to)
		g.preds[to] = append(g.preds[to], from)
	}

	for i, e := range ordered {
		for _, ref := range e.After {
			if j, ok := lookup[ref]; ok {
				add(j, i)
			}
		}
		for _, ref := range e.Before {
			if j, ok := lookup[ref]; ok {
				add(i, j)
			}
		}
	}
	return g
}

// emit walks the primary order, emitting each event's unemitted predecessors
// depth-first before the event itself.
func (g *constraintGraph) emit() []int {
	emitted := make([]bool, g.n)
	out := make([]int, 0, g.n)
	var visit func(i int)
	visit = func(i int) {
		if emitted[i] {
			return
		}
		emitted[i] = true
		for _, p := range g.preds[i] {
			visit(p)
		}
		out = append(out, i)
	}
	for i := 0; i < g.n; i++ {
		visit(i)
	}
	return out
}

// cycleMembers runs Kahn's algorithm and returns, in index order, the nodes
// that lie on a cycle or between cycles. Nil means the graph is acyclic.
func (g *constraintGraph) cycleMembers() []int {
	indeg := make([]int, g.n)
	for i := range g.succs {
		for _, j := range g.succs[i] {
			indeg[j]++
		}
	}
	removed := make([]bool, g.n)
	queue := make([]int, 0, g.n)
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	left := g.n
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		removed[i] = true
		left--
		for _, j := range g.succs[i] {
			if indeg[j]--; indeg[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if left == 0 {
		return nil
	}

	// Peel nodes that only lead out of the cycles.
	outdeg := make([]int, g.n)
	for i := range g.succs {
		if removed[i] {
			continue
		}
		for _, j := range g.succs[i] {
			if !removed[j] {
				outdeg[i]++
			}
		}
	}
	for i := range outdeg {
		if !removed[i] && outdeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		removed[i] = true
		for _, p := range g.preds[i] {
			if removed[p] {
				continue
			}
			if outdeg[p]--; outdeg[p] == 0 {
				queue = append(queue, p)
			}
		}
	}

	var out []int
	for i := range removed {
		if !removed[i] {
			out = append(out, i)
		}
	}
	return out
}

// referenceIndex maps every event's ID and Path to its index. The first
// event wins when keys collide.
func referenceIndex(events []Event) map[string]int {
	m := make(map[string]int, 2*len(events))
	for i, e := range events {
		for _, k := range []string{e.ID, e.Path} {
			if k == "" {
				continue
			}
			if _, ok := m[k]; !ok {
				m[k] = i
			}
		}
	}
	return m
}
