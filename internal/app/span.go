package app

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// Span is a duration specification in whole seconds: either a fixed value
// ("30") or an inclusive range ("30-120") sampled uniformly per use.
type Span struct {
	Min int
	Max int
}

// ParseSpan parses "N" or "N-M" into a Span.
func ParseSpan(s string) (Span, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Span{}, fmt.Errorf("empty span")
	}

	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		n, err := strconv.Atoi(lo)
		if err != nil {
			return Span{}, fmt.Errorf("invalid span %q: %w", s, err)
		}
		if n < 0 {
			return Span{}, fmt.Errorf("invalid span %q: negative", s)
		}
		return Span{Min: n, Max: n}, nil
	}

	minVal, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return Span{}, fmt.Errorf("invalid span %q: %w", s, err)
	}
	maxVal, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return Span{}, fmt.Errorf("invalid span %q: %w", s, err)
	}
	if minVal < 0 || maxVal < minVal {
		return Span{}, fmt.Errorf("invalid span %q: want 0 <= min <= max", s)
	}
	return Span{Min: minVal, Max: maxVal}, nil
}

// UnmarshalText lets koanf and CLI flags decode spans from strings.
func (s *Span) UnmarshalText(b []byte) error {
	parsed, err := ParseSpan(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText renders the span in its input form.
func (s Span) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Span) String() string {
	if s.Min == s.Max {
		return strconv.Itoa(s.Min)
	}
	return fmt.Sprintf("%d-%d", s.Min, s.Max)
}

// IsZero reports whether the span was never set.
func (s Span) IsZero() bool {
	return s.Min == 0 && s.Max == 0
}

// Sample draws a duration uniformly from [Min, Max] seconds.
func (s Span) Sample() time.Duration {
	if s.Max <= s.Min {
		return time.Duration(s.Min) * time.Second
	}
	n := s.Min + rand.IntN(s.Max-s.Min+1)
	return time.Duration(n) * time.Second
}
