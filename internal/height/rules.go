package height

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RawInteger reads the whole body as a block height. Surrounding
// whitespace is ignored; anything else that is not a digit is an error.
type RawInteger struct{}

// Extract implements Rule.
func (RawInteger) Extract(body string) (Height, error) {
	return parseHeight(strings.TrimSpace(body))
}

func (RawInteger) String() string {
	return "raw-integer"
}

// PatternCapture reads a block height from the single capture group of a
// regular expression applied to the body.
type PatternCapture struct {
	re *regexp.Regexp
}

// NewPatternCapture compiles pattern and checks that it has exactly one
// capture group.
func NewPatternCapture(pattern string) (*PatternCapture, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncorrectRegex, err)
	}
	if n := re.NumSubexp(); n != 1 {
		return nil, fmt.Errorf("%w: %q has %d", ErrIncorrectRegex, pattern, n)
	}
	return &PatternCapture{re: re}, nil
}

// MustPatternCapture is like NewPatternCapture but panics if the pattern is
// invalid. Use it for constant patterns only.
func MustPatternCapture(pattern string) *PatternCapture {
	rule, err := NewPatternCapture(pattern)
	if err != nil {
		panic("height: " + err.Error())
	}
	return rule
}

// Extract implements Rule.
func (p *PatternCapture) Extract(body string) (Height, error) {
	if p == nil || p.re == nil {
		return 0, fmt.Errorf("%w: no pattern configured", ErrIncorrectRegex)
	}

	match := p.re.FindStringSubmatch(body)
	if match == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoMetric, p.re.String())
	}
	// NewPatternCapture enforces a single group; checked again per call.
	if len(match) != 2 {
		return 0, fmt.Errorf("%w: matched %d groups", ErrIncorrectRegex, len(match)-1)
	}

	return parseHeight(match[1])
}

func (p *PatternCapture) String() string {
	if p == nil || p.re == nil {
		return "pattern()"
	}
	return fmt.Sprintf("pattern(%s)", p.re.String())
}

func parseHeight(s string) (Height, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrParse, s)
	}
	return Height(v), nil
}
