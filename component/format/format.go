package format

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
)

var binaryAbbrs = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}

var quantityNames = map[string]string{
	"k": "thousand",
	"M": "million",
	"G": "billion",
	"T": "trillion",
	"P": "quadrillion",
	"E": "quintillion",
}

// ReadableSize mirrors ClickHouse formatReadableSize, e.g. 1536 -> "1.5 KiB".
func ReadableSize(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if v < 0 {
		return "-" + ReadableSize(-v, decimals)
	}
	return units.CustomSize("%."+strconv.Itoa(decimals)+"f %s", v, 1024.0, binaryAbbrs)
}

// ReadableQuantity mirrors ClickHouse formatReadableQuantity, e.g.
// 1234567 -> "1.23 million".
func ReadableQuantity(v float64) string {
	if math.Abs(v) < 1000 {
		return fmt.Sprintf("%.2f", v)
	}
	value, prefix := humanize.ComputeSI(v)
	name, ok := quantityNames[prefix]
	if !ok {
		return humanize.FormatFloat("#,###.##", v)
	}
	return fmt.Sprintf("%.2f %s", value, name)
}

// Duration renders a number of seconds as a short human duration.
func Duration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	switch {
	case d < time.Millisecond:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

// RelatedTime renders t relative to now, e.g. "3 minutes ago".
func RelatedTime(t time.Time) string {
	return humanize.Time(t)
}

var (
	lineCommentRe  = regexp.MustCompile(`(?m)--[^\n]*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

type QueryOptions struct {
	CommentRemove bool
	Trim          bool
	// Truncate limits the result to that many runes, 0 means no limit.
	Truncate int
}

// Query prepares a SQL text for display.
func Query(query string, opts QueryOptions) string {
	if opts.CommentRemove {
		query = blockCommentRe.ReplaceAllString(query, "")
		query = lineCommentRe.ReplaceAllString(query, "")
	}
	if opts.Trim {
		query = strings.TrimSpace(whitespaceRe.ReplaceAllString(query, " "))
	}
	if opts.Truncate > 0 {
		query = Truncate(query, opts.Truncate)
	}
	return query
}

// Truncate cuts s to at most n runes, appending "..." when it was cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// Dedent removes the common leading indentation of all non-blank lines.
func Dedent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, line := range lines {
		if len(line) >= minIndent {
			lines[i] = line[minIndent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// Value renders an arbitrary row value as display text. Nested values
// are rendered as indented JSON.
func Value(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	case []interface{}, map[string]interface{}, []string, map[string]string, map[string]uint64:
		return JSON(x)
	default:
		return fmt.Sprint(x)
	}
}

// JSON renders v as 2-space indented JSON.
func JSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Float converts a row value into a float64. ClickHouse HTTP output
// quotes 64-bit integers, so numeric strings are accepted too.
func Float(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
