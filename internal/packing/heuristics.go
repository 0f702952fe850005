package packing

import (
	"math"
)

// Score is the wasted area of a packing: bounding box area minus the area of
// the rectangles. Zero means a perfect packing. Lower is better.
func Score(packing []Rect) int {
	if len(packing) == 0 {
		return 0
	}
	area := 0
	for _, r := range packing {
		area += r.Area()
	}
	return BBox(packing).Area() - area
}

const (
	spreadM = 0.5
	spreadK = 0.75
)

// SpreadScore weighs each free-space rectangle inside the bounding box by a
// concave mapping of its area, so many small gaps cost more than one large
// gap of the same total size. Lower is better.
//
// With s the mean side length of the packed rectangles, a gap of area x costs
// max(2*M*sqrt(s)*sqrt(x) + s*(K-2*M), x if x < sqrt(s) else 0).
func SpreadScore(packing []Rect) float64 {
	if len(packing) == 0 {
		return 0
	}
	var sides float64
	for _, r := range packing {
		sides += float64(r.Width() + r.Height())
	}
	s := sides / float64(2*len(packing))
	sqrtS := math.Sqrt(s)

	mapping := func(x float64) float64 {
		floor := 0.0
		if x < sqrtS {
			floor = x
		}
		return math.Max(2*spreadM*sqrtS*math.Sqrt(x)+s*(spreadK-2*spreadM), floor)
	}

	var total float64
	for _, gap := range Inverse(packing) {
		total += mapping(float64(gap.Area()))
	}
	return total
}

const closenessPow = 4

// ClosenessScore rewards rectangles whose sides are covered by neighbours: for
// every rectangle and side, the covered fraction of that side raised to the
// fourth power. Higher is better.
func ClosenessScore(packing []Rect) float32 {
	var acc float32
	for _, a := range packing {
		var touching [4]int
		for _, b := range packing {
			if side, amount, ok := a.AmountTouching(b); ok {
				touching[side] += amount
			}
		}
		acc += pow32(float32(touching[Left])/float32(a.Height()), closenessPow)
		acc += pow32(float32(touching[Top])/float32(a.Width()), closenessPow)
		acc += pow32(float32(touching[Right])/float32(a.Height()), closenessPow)
		acc += pow32(float32(touching[Bottom])/float32(a.Width()), closenessPow)
	}
	return acc
}

func pow32(x float32, n int) float32 {
	out := float32(1)
	for i := 0; i < n; i++ {
		out *= x
	}
	return out
}
