// Package render keeps the station circle elements and the tooltip, and writes
// them out as an SVG overlay sized to the map viewport.
package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"bikewatch.bluebikes.org/internal/models"
)

//go:embed overlay.svg.tmpl
var overlayTemplate string

var overlay = template.Must(template.New("overlay").Funcs(template.FuncMap{
	"px":    px,
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(overlayTemplate))

// element is one bound circle. seq is assigned on creation and never changes.
type element struct {
	seq    int
	circle models.Circle
}

// SVG is safe for concurrent use.
type SVG struct {
	mu       sync.RWMutex
	elements map[string]*element
	order    []string
	tooltip  models.Tooltip
	created  int
	updated  int
}

func NewSVG() *SVG {
	return &SVG{elements: make(map[string]*element)}
}

// Bind joins circles to elements by ID. Existing elements are updated in place,
// new IDs create elements, and elements whose ID is absent are removed.
func (r *SVG) Bind(circles []models.Circle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(circles))
	order := make([]string, 0, len(circles))
	for _, c := range circles {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		order = append(order, c.ID)

		if el, ok := r.elements[c.ID]; ok {
			el.circle = c
			r.updated++
			continue
		}
		r.created++
		r.elements[c.ID] = &element{seq: r.created, circle: c}
	}

	for id := range r.elements {
		if _, ok := seen[id]; !ok {
			delete(r.elements, id)
		}
	}
	r.order = order
}

// SetTooltip replaces the tooltip.
func (r *SVG) SetTooltip(t models.Tooltip) {
	r.mu.Lock()
	r.tooltip = t
	r.mu.Unlock()
}

// Created is the number of elements ever created.
func (r *SVG) Created() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.created
}

// ElementSeq returns the creation number of the element bound to id.
func (r *SVG) ElementSeq(id string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	el, ok := r.elements[id]
	if !ok {
		return 0, false
	}
	return el.seq, true
}

// Circles returns the bound circles in bind order.
func (r *SVG) Circles() []models.Circle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Circle, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.elements[id].circle)
	}
	return out
}

type overlayData struct {
	Width   int
	Height  int
	Circles []circleView
	Tooltip models.Tooltip
}

type circleView struct {
	models.Circle
	Seq   int
	Title string
}

// WriteSVG writes the overlay as a standalone SVG document.
func (r *SVG) WriteSVG(w io.Writer, width, height int) error {
	r.mu.RLock()
	data := overlayData{
		Width:   width,
		Height:  height,
		Tooltip: r.tooltip,
		Circles: make([]circleView, 0, len(r.order)),
	}
	for _, id := range r.order {
		el := r.elements[id]
		data.Circles = append(data.Circles, circleView{
			Circle: el.circle,
			Seq:    el.seq,
			Title:  el.circle.Label(),
		})
	}
	r.mu.RUnlock()

	if err := overlay.Execute(w, data); err != nil {
		return fmt.Errorf("rendering overlay: %w", err)
	}
	return nil
}

func px(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
