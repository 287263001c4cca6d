package acquire

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Progress receives free-form diagnostic lines produced while acquiring
// a source. Implementations must not block; callbacks are best-effort
// and invocation failures are never surfaced to the pipeline.
type Progress func(text string)

// report forwards a line when a callback is configured.
func report(p Progress, text string) {
	if p != nil {
		p(text)
	}
}

// percentThrottle suppresses progress reports that advance less than
// five percentage points since the last report, to avoid event floods.
type percentThrottle struct {
	last int
}

// newPercentThrottle creates a throttle that admits the first report.
func newPercentThrottle() *percentThrottle {
	return &percentThrottle{last: -5}
}

// admit reports whether pct advanced enough to be worth emitting.
func (t *percentThrottle) admit(pct int) bool {
	if pct < t.last+5 {
		return false
	}
	t.last = pct
	return true
}

// reportPercent emits a throttled "downloading: N%" progress line.
func (t *percentThrottle) reportPercent(p Progress, pct int) {
	if t.admit(pct) {
		report(p, fmt.Sprintf("downloading: %d%%", pct))
	}
}

var (
	ytdlpPercentPattern     = regexp.MustCompile(`\[download\]\s+([0-9]+(?:\.[0-9]+)?)%`)
	ytdlpDestinationPattern = regexp.MustCompile(`\[(?:download|ExtractAudio|Merger)\]\s+Destination:\s+(.+)`)
)

// parseDownloadPercent extracts the integer percentage from a yt-dlp
// progress line, returning false for lines without one.
func parseDownloadPercent(line string) (int, bool) {
	m := ytdlpPercentPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// parseDownloadDestination extracts the output path a yt-dlp stage
// announces. Postprocessing stages print after the download stage, so
// the last destination seen is the final file.
func parseDownloadDestination(line string) (string, bool) {
	m := ytdlpDestinationPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	path := strings.TrimSpace(m[1])
	return path, path != ""
}
