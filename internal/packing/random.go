package packing

// Random is the randomness a packer needs. *rand.Rand satisfies it.
type Random interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// DefaultAttempts is how many positions the random packer tries per
// rectangle before giving up on a trial.
const DefaultAttempts = 100

// InitialRects is the rectangle set every generated trial starts from.
func InitialRects() []Rect {
	return []Rect{
		NewRect(10, 10),
		NewRect(20, 10),
		NewRect(10, 20),
		NewRect(20, 20),
	}
}

// RandomPacker places rectangles at uniformly random, non-overlapping
// positions.
type RandomPacker struct {
	Rand     Random
	Attempts int
}

// Pack shuffles rects and moves each one, in order, to a random position
// inside a (sum of widths) x (sum of heights) area that does not overlap any
// rectangle placed before it. It returns false as soon as one rectangle
// cannot be placed within the attempt budget; rects is then only partially
// placed and should be discarded.
func (p RandomPacker) Pack(rects []Rect) bool {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	p.Rand.Shuffle(len(rects), func(i, j int) { rects[i], rects[j] = rects[j], rects[i] })

	var boundW, boundH int
	for _, r := range rects {
		boundW += r.Width()
		boundH += r.Height()
	}

outer:
	for i := range rects {
		w, h := rects[i].Width(), rects[i].Height()
		for a := 0; a < attempts; a++ {
			x := p.offset(boundW - w)
			y := p.offset(boundH - h)
			candidate := Rect{X1: x, Y1: y, X2: x + w, Y2: y + h}
			if !overlapsAny(candidate, rects[:i]) {
				rects[i] = candidate
				continue outer
			}
		}
		return false
	}
	return true
}

// PackUntilValid repeats Pack on fresh copies of initial until one succeeds,
// and reports how many trials were needed.
func (p RandomPacker) PackUntilValid(initial []Rect) ([]Rect, int) {
	rects := make([]Rect, len(initial))
	for tries := 1; ; tries++ {
		copy(rects, initial)
		if p.Pack(rects) {
			return rects, tries
		}
	}
}

// offset picks a coordinate in [0, span); a single rectangle has no room to
// move and stays at 0.
func (p RandomPacker) offset(span int) int {
	if span <= 0 {
		return 0
	}
	return p.Rand.Intn(span)
}

func overlapsAny(r Rect, placed []Rect) bool {
	for _, p := range placed {
		if r.Overlaps(p) {
			return true
		}
	}
	return false
}
