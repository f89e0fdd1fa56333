package mimetype

import (
	"sort"
	"strings"
)

// StringRange is one weighted token of an Accept-Charset, Accept-Encoding or
// Accept-Language header.
type StringRange struct {
	value  string
	qValue float64
	order  int
}

// Value is the lower-cased token, or "*".
func (stringRange StringRange) Value() string {
	return stringRange.value
}

// QValue is the client's preference weight for the token.
func (stringRange StringRange) QValue() float64 {
	return stringRange.qValue
}

// StringRanges is the parsed, sorted form of a token header. Like MediaRanges it is
// never empty: a blank header yields a single "*" range.
type StringRanges struct {
	ranges []StringRange
}

var defaultStringRanges = &StringRanges{ranges: []StringRange{{value: "*", qValue: 1.0}}}

// ParseStringRanges parses a header such as "utf-8, iso-8859-1;q=0.5, *;q=0.1".
func ParseStringRanges(header string) *StringRanges {
	var ranges []StringRange
	for _, segment := range splitQuoted(header, ',') {
		parts := splitQuoted(segment, ';')
		value := strings.ToLower(strings.TrimSpace(parts[0]))
		if value == "" {
			continue
		}

		stringRange := StringRange{value: value, qValue: 1.0, order: len(ranges)}
		for _, part := range parts[1:] {
			if param, ok := parseParameter(part); ok && param.Name == "q" {
				stringRange.qValue = parseQValue(param.Value)
				break
			}
		}
		ranges = append(ranges, stringRange)
	}

	if len(ranges) == 0 {
		return defaultStringRanges
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		left, right := ranges[i], ranges[j]
		if left.qValue != right.qValue {
			return left.qValue > right.qValue
		}
		if (left.value == "*") != (right.value == "*") {
			return right.value == "*"
		}
		return left.order < right.order
	})

	return &StringRanges{ranges: ranges}
}

// Returns a copy of the ranges in sorted order.
func (ranges *StringRanges) Ranges() []StringRange {
	copied := make([]StringRange, len(ranges.ranges))
	copy(copied, ranges.ranges)
	return copied
}

// Match returns the index of the preferred candidate, or NoMatch. Tokens compare
// case-insensitively, "*" matches anything, and q=0 tokens veto a candidate unless an
// exact positive token names it.
func (ranges *StringRanges) Match(candidates []string) int {
	for _, stringRange := range ranges.ranges {
		if stringRange.qValue <= 0 {
			continue
		}
		for index, candidate := range candidates {
			candidate = strings.ToLower(candidate)
			if stringRange.value != "*" && stringRange.value != candidate {
				continue
			}
			if ranges.vetoed(candidate, stringRange.value != "*") {
				continue
			}
			return index
		}
	}
	return NoMatch
}

func (ranges *StringRanges) vetoed(candidate string, exact bool) bool {
	for _, stringRange := range ranges.ranges {
		if stringRange.qValue > 0 {
			continue
		}
		if stringRange.value == candidate || (stringRange.value == "*" && !exact) {
			return true
		}
	}
	return false
}
