package common

import (
	"cmp"
	"fmt"
)

type Number interface {
	~int | ~float64
}

// Selection is one of Single, List or Range.
type Selection[T Number] interface {
	isSelection()
}

type Single[T Number] struct {
	Value T
}

type List[T Number] []T

// Range is an inclusive interval.
type Range[T Number] struct {
	From, To T
}

func (Single[T]) isSelection() {}
func (List[T]) isSelection()   {}
func (Range[T]) isSelection()  {}

// ExpandInts resolves an integer selection into an explicit list. Ranges
// enumerate every integer from From to To inclusive. Every value, and both
// range ends, must lie in [lo, hi].
func ExpandInts(name string, sel Selection[int], lo, hi int) ([]int, error) {
	switch s := sel.(type) {
	case Single[int]:
		if err := CheckBounds(name, []int{s.Value}, lo, hi); err != nil {
			return nil, err
		}
		return []int{s.Value}, nil
	case List[int]:
		if len(s) == 0 {
			return nil, fmt.Errorf("%w: empty %s list", ErrInvalidSelection, name)
		}
		if err := CheckBounds(name, []int(s), lo, hi); err != nil {
			return nil, err
		}
		return append([]int(nil), s...), nil
	case Range[int]:
		if s.To < s.From {
			return nil, fmt.Errorf("%w: %s range %d to %d is reversed", ErrInvalidSelection, name, s.From, s.To)
		}
		// ends are checked before the width is used
		if err := CheckBounds(name, []int{s.From, s.To}, lo, hi); err != nil {
			return nil, err
		}
		out := make([]int, 0, s.To-s.From+1)
		for v := s.From; v <= s.To; v++ {
			out = append(out, v)
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unsupported selection %T", ErrInvalidSelection, sel)
}

// CheckBounds fails when any value lies outside [lo, hi].
func CheckBounds[T cmp.Ordered](name string, values []T, lo, hi T) error {
	for _, v := range values {
		if v < lo || v > hi {
			return fmt.Errorf("%w: %s %v outside %v..%v", ErrInvalidSelection, name, v, lo, hi)
		}
	}
	return nil
}
