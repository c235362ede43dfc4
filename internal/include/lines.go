package include

import (
	"regexp"
	"strings"
)

// RangeKind identifies which bounds of a LineRange are set.
type RangeKind int

const (
	RangeFull    RangeKind = iota // ..
	RangeBounded                  // start..end
	RangeFrom                     // start..
	RangeTo                       // ..end
)

// LineRange selects lines by 0-based index. Start is inclusive, End is exclusive.
// An inverted range is allowed and selects nothing.
type LineRange struct {
	Kind  RangeKind
	Start int
	End   int
}

func Full() LineRange { return LineRange{Kind: RangeFull} }
func Bounded(start, end int) LineRange { return LineRange{Kind: RangeBounded, Start: start, End: end} }
func From(start int) LineRange { return LineRange{Kind: RangeFrom, Start: start} }
func To(end int) LineRange { return LineRange{Kind: RangeTo, End: end} }

// splitLines splits s into lines the way most line readers do: "\n"
// terminates a line, a trailing "\r" is dropped, and a final terminator
// does not produce an extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// TakeLines returns the lines of s selected by r, joined with "\n".
// Bounds past the end of s are clamped, negative starts count from 0.
func TakeLines(s string, r LineRange) string {
	lines := splitLines(s)

	start := 0
	if r.Kind == RangeBounded || r.Kind == RangeFrom {
		start = max(r.Start, 0)
	}
	if start >= len(lines) {
		return ""
	}
	lines = lines[start:]

	switch r.Kind {
	case RangeBounded, RangeTo:
		n := r.End - start
		if n <= 0 {
			return ""
		}
		if n < len(lines) {
			lines = lines[:n]
		}
	case RangeFull, RangeFrom:
	}
	return strings.Join(lines, "\n")
}

var (
	anchorStart = regexp.MustCompile(`ANCHOR:\s*(?P<anchor_name>[\w_-]+)`)
	anchorEnd   = regexp.MustCompile(`ANCHOR_END:\s*(?P<anchor_name>[\w_-]+)`)
)

// TakeAnchoredLines returns the lines between "ANCHOR: name" and
// "ANCHOR_END: name". Lines carrying any other ANCHOR marker inside the
// block are dropped. A missing end marker collects to the end of s.
func TakeAnchoredLines(s, anchor string) string {
	var retained []string
	found := false

	for _, l := range splitLines(s) {
		if !found {
			if m := anchorStart.FindStringSubmatch(l); m != nil && m[1] == anchor {
				found = true
			}
			continue
		}
		if m := anchorEnd.FindStringSubmatch(l); m != nil {
			if m[1] == anchor {
				break
			}
			retained = append(retained, l)
			continue
		}
		if !anchorStart.MatchString(l) {
			retained = append(retained, l)
		}
	}

	return strings.Join(retained, "\n")
}
