package tracks

import (
	"strconv"

	"github.com/desertthunder/sung/internal/refs"
)

// Key selects tracks from a [Collection]. It is one of [ByRef], [ByIndex], [BySlice] or [ByRefList].
type Key interface {
	positions(c *Collection) ([]int, error)
}

var (
	_ Key = ByRef("")
	_ Key = ByIndex(0)
	_ Key = BySlice{}
	_ Key = ByRefList(nil)
)

// ByRef selects the first track matching a reference in any encoding.
type ByRef string

func (k ByRef) positions(c *Collection) ([]int, error) {
	i, err := c.Index(string(k))
	if err != nil {
		return nil, err
	}
	return []int{i}, nil
}

// ByIndex selects one position. Any integer is accepted and wraps modulo the length, so -1 is the last
// track and Len() is the first.
type ByIndex int

func (k ByIndex) positions(c *Collection) ([]int, error) {
	n := c.Len()
	if n == 0 {
		return nil, &NotFoundError{Keys: []string{strconv.Itoa(int(k))}}
	}
	return []int{((int(k) % n) + n) % n}, nil
}

// BySlice selects a range of positions with the usual start/stop/step semantics: nil bounds mean
// "from the beginning" and "to the end", negative bounds count from the end, out-of-range bounds are
// clamped and a negative Step walks backwards. A zero Step means 1.
type BySlice struct {
	Start *int
	Stop  *int
	Step  int
}

// Bound returns a pointer to i, for use as a [BySlice] bound.
func Bound(i int) *int { return &i }

// Span returns the slice [start:stop].
func Span(start, stop int) BySlice {
	return BySlice{Start: Bound(start), Stop: Bound(stop)}
}

func (k BySlice) positions(c *Collection) ([]int, error) {
	return k.Indices(c.Len()), nil
}

// Indices returns the positions k selects from a sequence of length n.
func (k BySlice) Indices(n int) []int {
	step := k.Step
	if step == 0 {
		step = 1
	}

	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}

	clamp := func(b *int, def int) int {
		if b == nil {
			return def
		}
		v := *b
		if v < 0 {
			v += n
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}

	var start, stop int
	if step > 0 {
		start, stop = clamp(k.Start, lower), clamp(k.Stop, upper)
	} else {
		start, stop = clamp(k.Start, upper), clamp(k.Stop, lower)
	}

	var out []int
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		out = append(out, i)
	}
	return out
}

// ByRefList selects several tracks by reference, in the order listed. Every missing reference is
// reported in a single [NotFoundError].
type ByRefList []string

func (k ByRefList) positions(c *Collection) ([]int, error) {
	if _, err := c.IDs(); err != nil {
		return nil, err
	}

	out := make([]int, 0, len(k))
	var missing []string
	for _, ref := range k {
		id, err := refs.TrackID(ref)
		if err != nil {
			return nil, err
		}
		i, ok := c.index[id]
		if !ok {
			missing = append(missing, ref)
			continue
		}
		out = append(out, i)
	}

	if len(missing) > 0 {
		return nil, &NotFoundError{Keys: missing}
	}
	return out, nil
}
