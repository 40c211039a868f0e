package formatter

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mcncl/jsonsieve/internal/analyzer"
	"github.com/mcncl/jsonsieve/internal/generator"
)

// Formatter renders generated listings and summaries as text
type Formatter struct {
	// MaxPathWidth caps the alignment column so one long path does not push
	// every value to the far right. 0 means no cap.
	MaxPathWidth int
}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{MaxPathWidth: 60}
}

// Format writes one "path = value" line per entry with the "=" signs aligned.
func (f *Formatter) Format(lines []generator.Line) string {
	if len(lines) == 0 {
		return ""
	}

	width := 0
	for _, l := range lines {
		width = max(width, utf8.RuneCountInString(l.Path))
	}
	if f.MaxPathWidth > 0 {
		width = min(width, f.MaxPathWidth)
	}

	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Path)
		if pad := width - utf8.RuneCountInString(l.Path); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}
		sb.WriteString(" = ")
		sb.WriteString(l.Value)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatSummary renders a summary as aligned "key: value" lines. The
// digest is included only when withDigest is set.
func (f *Formatter) FormatSummary(sum analyzer.Summary, withDigest bool) string {
	fields := map[string]string{
		"objects":    fmt.Sprint(sum.Objects),
		"arrays":     fmt.Sprint(sum.Arrays),
		"strings":    fmt.Sprint(sum.Strings),
		"numbers":    fmt.Sprint(sum.Numbers),
		"bools":      fmt.Sprint(sum.Bools),
		"nulls":      fmt.Sprint(sum.Nulls),
		"members":    fmt.Sprint(sum.Members),
		"max_depth":  fmt.Sprint(sum.MaxDepth),
		"uuids":      fmt.Sprint(sum.UUIDs),
		"timestamps": fmt.Sprint(sum.Timestamps),
		"values":     fmt.Sprint(sum.Values()),
	}
	if withDigest {
		fields["digest"] = sum.DigestHex()
	}

	keys := make([]string, 0, len(fields))
	width := 0
	for k := range fields {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%-*s %s\n", width+1, k+":", fields[k])
	}
	return sb.String()
}
