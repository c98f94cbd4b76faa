package tasks

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sadopc/sidedock/internal/store"
)

var (
	tagPattern      = regexp.MustCompile(`#([^\s#]+)`)
	estimatePattern = regexp.MustCompile(`(?i)(\d+)\s*(?:min|m|分)`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// Input is the result of parsing a quick-add line.
type Input struct {
	Title    string
	Tags     []string
	Estimate store.Estimate
}

// ParseInput extracts #tags and the first "<n>m" / "<n>min" estimate from
// text. The estimate snaps to the nearest of 5, 15, 30, 60. What remains is
// the title.
func ParseInput(text string) Input {
	in := Input{Tags: []string{}}
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		in.Tags = append(in.Tags, m[1])
	}
	if m := estimatePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			in.Estimate = store.SnapEstimate(n)
		}
	}

	title := tagPattern.ReplaceAllString(text, "")
	title = estimatePattern.ReplaceAllString(title, "")
	title = spacePattern.ReplaceAllString(strings.TrimSpace(title), " ")
	if title == "" {
		title = Untitled
	}
	in.Title = title
	return in
}
