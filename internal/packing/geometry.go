// Package packing models axis-aligned rectangle packings and the heuristics
// used to score them.
package packing

import (
	"encoding/json"
	"fmt"
)

// Size is a width and height pair. It encodes as [w,h].
type Size struct {
	Width  int
	Height int
}

func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Width, s.Height})
}

func (s *Size) UnmarshalJSON(data []byte) error {
	var v []int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) != 2 {
		return fmt.Errorf("size: expected 2 elements, got %d", len(v))
	}
	s.Width, s.Height = v[0], v[1]
	return nil
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start int
	End   int
}

// Len is End - Start.
func (i Interval) Len() int { return i.End - i.Start }

// Overlaps reports whether i and o share any interior point.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}

// Contains reports whether o lies fully inside i.
func (i Interval) Contains(o Interval) bool {
	return i.Start <= o.Start && o.End <= i.End
}

// Intersection returns the overlap of i and o, or the zero interval.
func (i Interval) Intersection(o Interval) Interval {
	if !i.Overlaps(o) {
		return Interval{}
	}
	return Interval{Start: max(i.Start, o.Start), End: min(i.End, o.End)}
}

// Side is an edge of a rectangle.
type Side int

const (
	Left Side = iota
	Top
	Right
	Bottom
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Top:
		return "top"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Rect spans [X1,X2) x [Y1,Y2). It encodes as [x1,y1,x2,y2].
type Rect struct {
	X1, Y1, X2, Y2 int
}

// NewRect returns a w by h rectangle with its corner at the origin.
func NewRect(w, h int) Rect { return Rect{X2: w, Y2: h} }

func (r Rect) Width() int  { return r.X2 - r.X1 }
func (r Rect) Height() int { return r.Y2 - r.Y1 }
func (r Rect) Area() int   { return r.Width() * r.Height() }

func (r Rect) Size() Size { return Size{Width: r.Width(), Height: r.Height()} }

// Horz is the x extent.
func (r Rect) Horz() Interval { return Interval{Start: r.X1, End: r.X2} }

// Vert is the y extent.
func (r Rect) Vert() Interval { return Interval{Start: r.Y1, End: r.Y2} }

// Empty reports a zero area.
func (r Rect) Empty() bool { return r.X1 == r.X2 || r.Y1 == r.Y2 }

// Overlaps reports whether r and o share interior area. Touching edges do not
// overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.Horz().Overlaps(o.Horz()) && r.Vert().Overlaps(o.Vert())
}

// Contains reports whether o lies fully inside r.
func (r Rect) Contains(o Rect) bool {
	return r.Horz().Contains(o.Horz()) && r.Vert().Contains(o.Vert())
}

// CanMerge reports whether r and o share a full edge, so that their union is a
// rectangle.
func (r Rect) CanMerge(o Rect) bool {
	topBottom := (o.Y2 == r.Y1 || r.Y2 == o.Y1) && r.X1 == o.X1 && r.X2 == o.X2
	leftRight := (o.X2 == r.X1 || r.X2 == o.X1) && r.Y1 == o.Y1 && r.Y2 == o.Y2
	return topBottom || leftRight
}

// Merge returns the union of r and o when CanMerge holds.
func (r Rect) Merge(o Rect) (Rect, bool) {
	if !r.CanMerge(o) {
		return Rect{}, false
	}
	return Rect{
		X1: min(r.X1, o.X1),
		Y1: min(r.Y1, o.Y1),
		X2: max(r.X2, o.X2),
		Y2: max(r.Y2, o.Y2),
	}, true
}

// AmountTouching reports which side of r the rectangle o abuts and the length
// of the shared edge. The length is zero when the rectangles only line up
// along the side without overlapping on it.
func (r Rect) AmountTouching(o Rect) (Side, int, bool) {
	switch {
	case o.X2 == r.X1:
		return Left, r.Vert().Intersection(o.Vert()).Len(), true
	case o.Y2 == r.Y1:
		return Top, r.Horz().Intersection(o.Horz()).Len(), true
	case r.X2 == o.X1:
		return Right, r.Vert().Intersection(o.Vert()).Len(), true
	case r.Y2 == o.Y1:
		return Bottom, r.Horz().Intersection(o.Horz()).Len(), true
	}
	return 0, 0, false
}

// CutOut removes o from r and returns the non-empty remainder pieces, at most
// four: left, top, right and bottom.
func (r Rect) CutOut(o Rect) []Rect {
	leftW := clamp(o.X1-r.X1, 0, r.Width())
	topH := clamp(o.Y1-r.Y1, 0, r.Height())
	rightW := clamp(r.X2-o.X2, 0, r.Width())
	bottomH := clamp(r.Y2-o.Y2, 0, r.Height())

	pieces := [4]Rect{
		{X1: r.X1, X2: r.X1 + leftW, Y1: r.Y1, Y2: r.Y2 - bottomH},
		{X1: r.X1 + leftW, X2: r.X2, Y1: r.Y1, Y2: r.Y1 + topH},
		{X1: r.X2 - rightW, X2: r.X2, Y1: r.Y1 + topH, Y2: r.Y2},
		{X1: r.X1, X2: r.X2 - rightW, Y1: r.Y2 - bottomH, Y2: r.Y2},
	}
	out := make([]Rect, 0, len(pieces))
	for _, p := range pieces {
		if !p.Empty() {
			out = append(out, p)
		}
	}
	return out
}

func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{r.X1, r.Y1, r.X2, r.Y2})
}

func (r *Rect) UnmarshalJSON(data []byte) error {
	var v []int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("rect: expected 4 elements, got %d", len(v))
	}
	r.X1, r.Y1, r.X2, r.Y2 = v[0], v[1], v[2], v[3]
	return nil
}

// BBox is the smallest rectangle covering rects, or the zero rectangle.
func BBox(rects []Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	b := rects[0]
	for _, r := range rects[1:] {
		b.X1 = min(b.X1, r.X1)
		b.Y1 = min(b.Y1, r.Y1)
		b.X2 = max(b.X2, r.X2)
		b.Y2 = max(b.Y2, r.Y2)
	}
	return b
}

// Inverse returns the free space inside the bounding box of packing as a set
// of disjoint rectangles, merged where possible.
func Inverse(packing []Rect) []Rect {
	free := []Rect{BBox(packing)}
	for _, rect := range packing {
		for i := 0; i < len(free); {
			pieces := free[i].CutOut(rect)
			if len(pieces) == 0 {
				free = append(free[:i], free[i+1:]...)
				continue
			}
			free[i] = pieces[0]
			free = append(free, pieces[1:]...)
			i++
		}
	}
	return Simplify(free)
}

// Simplify repeatedly merges pairs of rectangles that share a full edge.
// rects is modified in place and the shortened slice is returned.
func Simplify(rects []Rect) []Rect {
	for i := 0; i < len(rects); i++ {
		for j := 0; j < len(rects); {
			if j == i {
				j++
				continue
			}
			merged, ok := rects[i].Merge(rects[j])
			if !ok {
				j++
				continue
			}
			rects[i] = merged
			rects = append(rects[:j], rects[j+1:]...)
			j = 0
			// step back: the merged rectangle may have shifted left
			if i > 0 {
				i--
			}
		}
	}
	return rects
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
