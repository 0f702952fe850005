// Package tally counts the order column among rows whose score satisfies a
// predicate.
package tally

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"xpug.it/packscore/internal/record"
)

// Kind selects how Predicate.Value is compared against a score.
type Kind int

const (
	// Threshold matches score < Value.
	Threshold Kind = iota
	// Equality matches score == Value.
	Equality
)

func (k Kind) String() string {
	switch k {
	case Threshold:
		return "lt"
	case Equality:
		return "eq"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts "lt"/"threshold" and "eq"/"equality".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lt", "<", "threshold":
		return Threshold, nil
	case "eq", "==", "equality":
		return Equality, nil
	}
	return 0, fmt.Errorf("unknown predicate kind %q", s)
}

// Predicate is the score condition a row must satisfy to be counted.
type Predicate struct {
	Kind  Kind
	Value int
}

var (
	// Below counts rows with score < 6.
	Below = Predicate{Kind: Threshold, Value: 6}
	// Zero counts rows with score == 0.
	Zero = Predicate{Kind: Equality, Value: 0}
)

// Variant resolves a named predicate preset.
func Variant(name string) (Predicate, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "below":
		return Below, nil
	case "zero":
		return Zero, nil
	}
	return Predicate{}, fmt.Errorf("unknown count variant %q", name)
}

// Match reports whether score satisfies p.
func (p Predicate) Match(score int) bool {
	if p.Kind == Equality {
		return score == p.Value
	}
	return score < p.Value
}

func (p Predicate) String() string {
	if p.Kind == Equality {
		return fmt.Sprintf("score == %d", p.Value)
	}
	return fmt.Sprintf("score < %d", p.Value)
}

// Select returns the indices of records whose score matches p. It stops at the
// first score that does not parse.
func Select(records []record.Record, p Predicate) (*roaring.Bitmap, error) {
	selected := roaring.New()
	for i, rec := range records {
		score, err := rec.Score()
		if err != nil {
			return nil, err
		}
		if p.Match(score) {
			selected.Add(uint32(i))
		}
	}
	return selected, nil
}

// Entry is one order value and how many selected rows carried it.
type Entry struct {
	Order string
	Count int
}

// Tally holds counts per order value in first-seen order.
type Tally struct {
	counts map[string]int
	seen   []string
}

// Count tallies the order column of the selected records.
func Count(records []record.Record, selected *roaring.Bitmap) *Tally {
	t := &Tally{counts: make(map[string]int)}
	it := selected.Iterator()
	for it.HasNext() {
		t.add(records[it.Next()].Order())
	}
	return t
}

// Run selects with p and counts in one call.
func Run(records []record.Record, p Predicate) (*Tally, error) {
	selected, err := Select(records, p)
	if err != nil {
		return nil, err
	}
	return Count(records, selected), nil
}

func (t *Tally) add(order string) {
	if _, ok := t.counts[order]; !ok {
		t.seen = append(t.seen, order)
	}
	t.counts[order]++
}

// Counts returns a copy of the order to count mapping. Orders never selected
// are absent.
func (t *Tally) Counts() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// Total is the number of counted rows.
func (t *Tally) Total() int {
	n := 0
	for _, v := range t.counts {
		n += v
	}
	return n
}

// Entries returns the counts sorted by count, largest first. Equal counts
// keep the order in which their keys were first seen.
func (t *Tally) Entries() []Entry {
	entries := make([]Entry, 0, len(t.seen))
	for _, order := range t.seen {
		entries = append(entries, Entry{Order: order, Count: t.counts[order]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	return entries
}

// Print writes one "<order>: <count>" line per entry.
func (t *Tally) Print(w io.Writer) error {
	for _, e := range t.Entries() {
		if _, err := fmt.Fprintf(w, "%s: %d\n", e.Order, e.Count); err != nil {
			return err
		}
	}
	return nil
}
