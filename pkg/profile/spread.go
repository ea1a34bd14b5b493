package profile

import (
	"fmt"

	"github.com/BTBurke/zonesim/pkg/rng"
)

// Kind selects how a Spread turns a uniform draw into a value
type Kind int

const (
	// Uniform draws a real value in [Low, High)
	Uniform Kind = iota
	// Int draws an integer in [Low, High], both ends inclusive
	Int
	// Sign draws -High or +High with equal probability
	Sign
)

func (k Kind) String() string {
	switch k {
	case Uniform:
		return "uniform"
	case Int:
		return "int"
	case Sign:
		return "sign"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Spread is a declarative random draw.  Every Spread consumes exactly one draw from the source.
type Spread struct {
	Kind Kind
	Low  float64
	High float64
}

// U returns a continuous spread over [low, high)
func U(low, high float64) Spread {
	return Spread{Kind: Uniform, Low: low, High: high}
}

// I returns an inclusive integer spread over [low, high]
func I(low, high int) Spread {
	return Spread{Kind: Int, Low: float64(low), High: float64(high)}
}

// PlusMinus returns a spread that is either -mag or +mag
func PlusMinus(mag float64) Spread {
	return Spread{Kind: Sign, High: mag}
}

// Draw takes one value from the source
func (s Spread) Draw(src rng.Source) float64 {
	switch s.Kind {
	case Int:
		return s.Low + float64(src.Intn(int(s.High-s.Low)+1))
	case Sign:
		return float64(src.Intn(2)*2-1) * s.High
	default:
		return s.Low + src.Float64()*(s.High-s.Low)
	}
}

// Bounds returns the smallest and largest value Draw can produce
func (s Spread) Bounds() (float64, float64) {
	if s.Kind == Sign {
		return -s.High, s.High
	}
	return s.Low, s.High
}

// Contains reports whether v is a value Draw could have produced
func (s Spread) Contains(v float64) bool {
	lo, hi := s.Bounds()
	switch s.Kind {
	case Sign:
		return v == lo || v == hi
	case Int:
		return v >= lo && v <= hi && v == float64(int64(v))
	default:
		return v >= lo && v <= hi
	}
}

// Integral reports whether every value the spread produces is a whole number
func (s Spread) Integral() bool {
	switch s.Kind {
	case Int:
		return true
	case Sign:
		return s.High == float64(int64(s.High))
	default:
		return false
	}
}

func (s Spread) validate() error {
	switch s.Kind {
	case Uniform:
		if s.High < s.Low {
			return fmt.Errorf("uniform spread high %v is below low %v", s.High, s.Low)
		}
	case Int:
		if s.Low != float64(int64(s.Low)) || s.High != float64(int64(s.High)) {
			return fmt.Errorf("int spread bounds must be whole numbers, got [%v, %v]", s.Low, s.High)
		}
		if s.High < s.Low {
			return fmt.Errorf("int spread high %v is below low %v", s.High, s.Low)
		}
	case Sign:
		if s.High < 0 {
			return fmt.Errorf("sign spread magnitude must not be negative, got %v", s.High)
		}
	default:
		return fmt.Errorf("unknown spread kind %d", int(s.Kind))
	}
	return nil
}

func (s Spread) String() string {
	if s.Kind == Sign {
		return fmt.Sprintf("±%v", s.High)
	}
	return fmt.Sprintf("%s[%v, %v]", s.Kind, s.Low, s.High)
}
