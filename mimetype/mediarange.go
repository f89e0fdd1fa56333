package mimetype

import (
	"sort"
	"strconv"
	"strings"
)

/*
MediaRange is one weighted entry of an Accept header: a media type pattern, a quality
value in [0, 1] and any accept-extension parameters that followed "q=".
*/
type MediaRange struct {
	mediaType  MediaType
	qValue     float64
	extensions []Parameter
	// position in the original header, used as the final sort tie-break.
	order int
}

/*
ParseRange reads a single Accept header entry such as "text/html;level=1;q=0.5;x=y".
Parameters before "q" belong to the media type, parameters after it are extensions.
A missing or unparsable q-value defaults to 1.0; out of range values are clamped.
*/
func ParseRange(text string) MediaRange {
	segments := splitQuoted(text, ';')

	mediaRange := MediaRange{qValue: 1.0}
	var typeParams []string
	seenQ := false

	for _, segment := range segments[1:] {
		if !seenQ {
			param, ok := parseParameter(segment)
			if ok && param.Name == "q" {
				seenQ = true
				mediaRange.qValue = parseQValue(param.Value)
				continue
			}
			typeParams = append(typeParams, segment)
			continue
		}

		if param, ok := parseParameter(segment); ok {
			mediaRange.extensions = append(mediaRange.extensions, param)
		}
	}

	mediaRange.mediaType = Parse(strings.Join(append([]string{segments[0]}, typeParams...), ";"))
	return mediaRange
}

func parseQValue(text string) float64 {
	qValue, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 1.0
	}
	if qValue < 0 {
		return 0
	}
	if qValue > 1 {
		return 1
	}
	return qValue
}

// The media type pattern of this range.
func (mediaRange MediaRange) MediaType() MediaType {
	return mediaRange.mediaType
}

// QValue is the client's preference weight for this range.
func (mediaRange MediaRange) QValue() float64 {
	return mediaRange.qValue
}

// Returns a copy of the accept-extension parameters.
func (mediaRange MediaRange) Extensions() []Parameter {
	if len(mediaRange.extensions) == 0 {
		return nil
	}
	extensions := make([]Parameter, len(mediaRange.extensions))
	copy(extensions, mediaRange.extensions)
	return extensions
}

// Specificity of the range's media type pattern.
func (mediaRange MediaRange) Specificity() int {
	return mediaRange.mediaType.Specificity()
}

// String renders the range in header syntax. The q-value is only written when it is
// not 1 or extensions follow it.
func (mediaRange MediaRange) String() string {
	builder := strings.Builder{}
	builder.WriteString(mediaRange.mediaType.String())
	if mediaRange.qValue != 1 || len(mediaRange.extensions) > 0 {
		builder.WriteString(";q=")
		builder.WriteString(strconv.FormatFloat(mediaRange.qValue, 'f', -1, 64))
	}
	writeParameters(&builder, mediaRange.extensions)
	return builder.String()
}

// MediaRanges is the parsed, sorted form of an Accept header. It is immutable and
// never empty: a blank header yields a single "*/*" range with q=1.
//
// Ranges are ordered by q-value (highest first), then specificity (most exact first),
// then their position in the header.
type MediaRanges struct {
	ranges []MediaRange
}

var defaultRanges = &MediaRanges{
	ranges: []MediaRange{{mediaType: WILDCARD, qValue: 1.0}},
}

// ParseRanges parses the value of an Accept style header.
func ParseRanges(header string) *MediaRanges {
	var ranges []MediaRange
	for _, segment := range splitQuoted(header, ',') {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		mediaRange := ParseRange(segment)
		if mediaRange.mediaType.IsEmpty() {
			continue
		}
		mediaRange.order = len(ranges)
		ranges = append(ranges, mediaRange)
	}

	if len(ranges) == 0 {
		return defaultRanges
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		left, right := ranges[i], ranges[j]
		if left.qValue != right.qValue {
			return left.qValue > right.qValue
		}
		if left.Specificity() != right.Specificity() {
			return left.Specificity() > right.Specificity()
		}
		return left.order < right.order
	})

	return &MediaRanges{ranges: ranges}
}

// RangesFromHeader parses header name from headers. An absent header is treated like
// an empty one.
func RangesFromHeader(headers headerFetcher, name string) *MediaRanges {
	if headers == nil {
		return defaultRanges
	}
	return ParseRanges(headers.Get(name))
}

// Number of ranges. Always at least 1.
func (ranges *MediaRanges) Len() int {
	return len(ranges.ranges)
}

// Returns the range at index in sorted order.
func (ranges *MediaRanges) At(index int) MediaRange {
	return ranges.ranges[index]
}

// Returns a copy of the ranges in sorted order.
func (ranges *MediaRanges) Ranges() []MediaRange {
	copied := make([]MediaRange, len(ranges.ranges))
	copy(copied, ranges.ranges)
	return copied
}

// Match runs the negotiation engine against candidates. See Match().
func (ranges *MediaRanges) Match(candidates []MediaType) int {
	return Match(ranges, candidates)
}

// String renders the ranges, sorted, in header syntax.
func (ranges *MediaRanges) String() string {
	rendered := make([]string, len(ranges.ranges))
	for index, mediaRange := range ranges.ranges {
		rendered[index] = mediaRange.String()
	}
	return strings.Join(rendered, ", ")
}
