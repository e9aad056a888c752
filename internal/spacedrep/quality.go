package spacedrep

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Quality is the learner's self-assessed recall quality for a review.
// The ordinal value feeds the ease factor formula directly.
type Quality int

const (
	Forgot   Quality = iota // Completely forgot.
	Hard                    // Remembered with difficulty.
	Good                    // Remembered with some effort.
	Easy                    // Remembered easily.
	VeryEasy                // Too easy.
)

var (
	qualityNames = [...]string{
		Forgot:   "forgot",
		Hard:     "hard",
		Good:     "good",
		Easy:     "easy",
		VeryEasy: "very_easy",
	}
	qualityDescriptions = [...]string{
		Forgot:   "Completely forgot",
		Hard:     "Remembered with difficulty",
		Good:     "Remembered with some effort",
		Easy:     "Remembered easily",
		VeryEasy: "Too easy",
	}
)

var (
	_ fmt.Stringer             = Quality(0)
	_ json.Marshaler           = Quality(0)
	_ json.Unmarshaler         = (*Quality)(nil)
	_ encoding.TextMarshaler   = Quality(0)
	_ encoding.TextUnmarshaler = (*Quality)(nil)
)

// AllQualities returns the five grades in ascending order.
func AllQualities() []Quality {
	return []Quality{Forgot, Hard, Good, Easy, VeryEasy}
}

// QualityFromInt validates n and converts it to a Quality.
func QualityFromInt(n int) (Quality, error) {
	q := Quality(n)
	if !q.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuality, n)
	}
	return q, nil
}

// ParseQuality accepts either the ordinal ("0".."4") or the grade name.
// Names are case-insensitive; "very easy" and "very-easy" are accepted too.
func ParseQuality(s string) (Quality, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return QualityFromInt(n)
	}
	name := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(s))
	for q, qn := range qualityNames {
		if qn == name {
			return Quality(q), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
}

// IsValid reports whether q is one of the five defined grades.
func (q Quality) IsValid() bool {
	return q >= Forgot && q <= VeryEasy
}

// IsLapse reports whether a review graded q resets the repetition count.
func (q Quality) IsLapse() bool {
	return q < Good
}

// String returns the grade name, or "Quality(n)" for invalid values.
func (q Quality) String() string {
	if q.IsValid() {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// Label returns the upper-case button label used by the UIs ("VERY EASY").
func (q Quality) Label() string {
	return strings.ToUpper(strings.ReplaceAll(q.String(), "_", " "))
}

// Description returns a short explanation of the grade.
func (q Quality) Description() string {
	if q.IsValid() {
		return qualityDescriptions[q]
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	if !q.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, int(q))
	}
	return []byte(qualityNames[q]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quality) UnmarshalText(text []byte) error {
	v, err := ParseQuality(string(text))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// MarshalJSON implements json.Marshaler. Quality serializes as its ordinal.
func (q Quality) MarshalJSON() ([]byte, error) {
	if !q.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, int(q))
	}
	return []byte(strconv.Itoa(int(q))), nil
}

// UnmarshalJSON implements json.Unmarshaler. Both the ordinal and the
// grade name are accepted: 2 and "good" decode to Good.
func (q *Quality) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return fmt.Errorf("%w: null", ErrInvalidQuality)
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		v, err := QualityFromInt(n)
		if err != nil {
			return err
		}
		*q = v
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuality, data)
	}
	return q.UnmarshalText([]byte(s))
}
