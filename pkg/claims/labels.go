package claims

import (
	"fmt"
	"strings"
)

// LabelEncoder maps the categorical fraud column to 0/1 and back.
type LabelEncoder struct {
	Negative string
	Positive string
}

// DefaultLabelEncoder encodes "No" as 0 and "Yes" as 1.
func DefaultLabelEncoder() LabelEncoder {
	return LabelEncoder{Negative: "No", Positive: "Yes"}
}

// Encode maps a raw label to 0 or 1. Matching ignores case and surrounding
// space.
func (e LabelEncoder) Encode(raw string) (int, error) {
	v := strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(v, e.Positive):
		return 1, nil
	case strings.EqualFold(v, e.Negative):
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrNonBinaryLabel, raw)
}

// Decode maps 0/1 back to the categorical value.
func (e LabelEncoder) Decode(v int) (string, error) {
	switch v {
	case 1:
		return e.Positive, nil
	case 0:
		return e.Negative, nil
	}
	return "", fmt.Errorf("%w: %d", ErrNonBinaryLabel, v)
}

// EncodeAll encodes a column, stopping at the first non-binary value.
func (e LabelEncoder) EncodeAll(raw []string) ([]int, error) {
	out := make([]int, len(raw))
	for i, r := range raw {
		v, err := e.Encode(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// DecodeAll reverses EncodeAll.
func (e LabelEncoder) DecodeAll(vals []int) ([]string, error) {
	out := make([]string, len(vals))
	for i, v := range vals {
		s, err := e.Decode(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}
