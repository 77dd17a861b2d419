package fail

import (
	"math"
	"mime"
	"sort"
	"strconv"
	"strings"
)

// An Accept is a single entry of an Accept header:
// the media type the client asked for and the quality weight assigned to it.
type Accept struct {
	Type string
	Q    float64
}

// ParseAccept parses an Accept header into the client's preferences,
// most preferred first.
//
// Entries missing a "q" parameter weigh 1.0 and weights parse clamped to [0.0, 1.0].
// Entries sharing a weight keep the client's written order.
// Malformed entries drop out rather than failing the whole header.
func ParseAccept(header string) []Accept {
	if header == "" {
		return nil
	}

	var accepts []Accept
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		mediatype, params, err := mime.ParseMediaType(part)
		if err != nil {
			continue
		}

		a := Accept{Type: mediatype, Q: 1}
		if qval, ok := params["q"]; ok {
			if q, err := strconv.ParseFloat(qval, 64); err == nil {
				a.Q = math.Max(0, math.Min(1, q))
			}
		}

		accepts = append(accepts, a)
	}

	sort.SliceStable(accepts, func(i, j int) bool { return accepts[i].Q > accepts[j].Q })

	return accepts
}
