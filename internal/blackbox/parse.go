package blackbox

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultMarkers are the phrases that announce the score on a line of output.
var DefaultMarkers = []string{"Valor de saída:", "Output value:"}

// ParseOutput extracts the score from a program's stdout.
//
// When a line contains one of the markers, the text after the last ':' of
// that line is the score. Otherwise the whole trimmed output must be a number.
// Output that is not valid UTF-8 is read as Windows-1252.
func ParseOutput(stdout string, markers []string) Result {
	out := strings.TrimSpace(decodeOutput(stdout))
	if out == "" {
		return Failure(UnparsableOutput, "empty output")
	}

	for _, line := range strings.Split(out, "\n") {
		if !containsAny(line, markers) {
			continue
		}
		text := line
		if i := strings.LastIndex(line, ":"); i >= 0 {
			text = line[i+1:]
		}
		return parseScore(strings.TrimSpace(text))
	}
	return parseScore(out)
}

func decodeOutput(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}

func parseScore(text string) Result {
	score, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(score) {
		return Failure(UnparsableOutput, fmt.Sprintf("cannot read a number from %q", truncate(text, 120)))
	}
	return Success(score)
}

func containsAny(line string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
