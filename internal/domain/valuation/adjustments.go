// Package valuation implements the appraisal arithmetic: adjustment
// aggregation, per-comparable value calculation, weight rebalancing, and
// approach reconciliation. It is the single home for formulas that the
// legacy wizard duplicated per approach; every approach type runs through
// this engine parameterized by its settings.
//
// The package is pure: no I/O, no clocks, no mutation of caller inputs.
package valuation

import (
	"strconv"
	"strings"
)

// OtherAmenitiesKey marks the adjustment line whose value is the sum of its
// nested amenity rows rather than its own Value field.
const OtherAmenitiesKey = "other_amenities"

// Amenity is one nested row under an "other amenities" adjustment line.
type Amenity struct {
	Name  string `json:"another_amenity"`
	Value string `json:"another_amenity_value"`
}

// AdjustmentLine is a single named adjustment against a comparable. Values
// are kept as entered ("-$25,000", "5%", "1,200") and parsed on aggregation
// so that partial keyboard input never breaks recomputation.
type AdjustmentLine struct {
	Key            string    `json:"adj_key"`
	Value          string    `json:"adj_value"`
	ExtraAmenities []Amenity `json:"extra_amenities,omitempty"`
}

// parseLeadingFloat parses the longest numeric prefix of s, matching the
// lenient parse the wizard relied on: "12.5abc" is 12.5, "-" and "" and
// non-numeric input are 0. An exponent suffix is honored when well formed.
func parseLeadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	n := len(s)
	i := 0
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := false
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
		digits = true
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			digits = true
		}
	}
	if !digits {
		return 0
	}
	end := i
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := false
		for j < n && s[j] >= '0' && s[j] <= '9' {
			j++
			expDigits = true
		}
		if expDigits {
			end = j
		}
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

var (
	lineStripper    = strings.NewReplacer("$", "", ",", "", "%", "")
	amenityStripper = strings.NewReplacer("$", "", ",", "")
)

// Aggregate sums the numeric contribution of every adjustment line. A line
// keyed other_amenities with nested rows contributes the sum of its amenity
// values ($ and , stripped); every other line contributes its own value
// ($ , % stripped). Unparseable values contribute 0. The input is not
// modified.
func Aggregate(lines []AdjustmentLine) float64 {
	var total float64
	for _, line := range lines {
		if line.Key == OtherAmenitiesKey && len(line.ExtraAmenities) > 0 {
			for _, a := range line.ExtraAmenities {
				if strings.TrimSpace(a.Value) == "" {
					continue
				}
				total += parseLeadingFloat(amenityStripper.Replace(a.Value))
			}
			continue
		}
		if line.Value == "" {
			continue
		}
		total += parseLeadingFloat(lineStripper.Replace(line.Value))
	}
	return total
}

// ApplyValue returns a copy of lines with the value at index replaced.
// An out-of-range index returns an unchanged copy. The input slice and its
// elements are never mutated, so a failed downstream save cannot corrupt
// the caller's state.
func ApplyValue(lines []AdjustmentLine, index int, value string) []AdjustmentLine {
	out := make([]AdjustmentLine, len(lines))
	copy(out, lines)
	if index >= 0 && index < len(out) {
		out[index].Value = value
	}
	return out
}

// AggregateWith applies a single value change and aggregates in one step.
func AggregateWith(lines []AdjustmentLine, index int, value string) (float64, []AdjustmentLine) {
	updated := ApplyValue(lines, index, value)
	return Aggregate(updated), updated
}
