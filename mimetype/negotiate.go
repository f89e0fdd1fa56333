package mimetype

// NoMatch is returned by Match when no candidate is acceptable.
const NoMatch = -1

// Match returns the index of the candidate the client prefers, or NoMatch. See
// MatchRange for the algorithm.
func Match(ranges *MediaRanges, candidates []MediaType) int {
	index, _ := MatchRange(ranges, candidates)
	return index
}

// MatchRange negotiates candidates against ranges and returns the index of the winning
// candidate along with the range it satisfied.
//
// Ranges are walked in sorted order and, for each range, candidates in declared order;
// the first pair that matches wins. The client's q-values and specificity therefore
// outrank server declaration order, while declaration order breaks ties between
// candidates satisfying the same range.
//
// A range with q=0 never selects anything. It vetoes every candidate it matches unless
// a strictly more specific positive range selected that candidate, so
// "application/json;q=0, */*;q=0.1" rejects JSON while "text/plain, */*;q=0"
// still accepts text/plain.
//
// Returns NoMatch and a zero MediaRange when nothing is acceptable.
func MatchRange(ranges *MediaRanges, candidates []MediaType) (int, MediaRange) {
	if ranges == nil {
		ranges = defaultRanges
	}

	for _, mediaRange := range ranges.ranges {
		if mediaRange.qValue <= 0 {
			continue
		}
		for index, candidate := range candidates {
			if !mediaRange.mediaType.Includes(candidate) {
				continue
			}
			if vetoed(ranges, candidate, mediaRange.Specificity()) {
				continue
			}
			return index, mediaRange
		}
	}

	return NoMatch, MediaRange{}
}

func vetoed(ranges *MediaRanges, candidate MediaType, specificity int) bool {
	for _, mediaRange := range ranges.ranges {
		if mediaRange.qValue > 0 || mediaRange.Specificity() < specificity {
			continue
		}
		if mediaRange.mediaType.Includes(candidate) {
			return true
		}
	}
	return false
}
