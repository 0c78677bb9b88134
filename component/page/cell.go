package page

import (
	"hash/fnv"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chdash/chdash/component/format"
	"github.com/chdash/chdash/component/queries"

	"github.com/dustin/go-humanize"
)

// Cell is one table value prepared for display.
type Cell struct {
	Format queries.ColumnFormat `json:"format"`
	Text   string               `json:"text"`
	// Full is the untruncated value shown by dialogs and tooltips.
	Full      string           `json:"full,omitempty"`
	Title     string           `json:"title,omitempty"`
	Href      string           `json:"href,omitempty"`
	ClassName string           `json:"class_name,omitempty"`
	Color     string           `json:"color,omitempty"`
	Percent   float64          `json:"percent,omitempty"`
	Actions   []queries.Action `json:"actions,omitempty"`
}

var badgeColors = []string{"blue", "green", "orange", "purple", "pink", "teal", "indigo", "amber", "cyan", "lime"}

var hrefRe = regexp.MustCompile(`\[([A-Za-z0-9_.]+)\]`)

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

// Cell formats column of row according to the column format of the page
// config. queryTruncate applies to code dialogs without an explicit limit.
func (p *Page) Cell(row map[string]interface{}, column string, queryTruncate int) Cell {
	v := row[column]
	text := format.Value(v)
	spec, ok := p.Config.ColumnFormat(column)
	if !ok {
		return Cell{Format: queries.ColumnFormatText, Text: text}
	}
	opts := queries.ColumnFormatOptions{}
	if spec.Options != nil {
		opts = *spec.Options
	}
	c := Cell{Format: spec.Format, Text: text, Title: opts.Title, ClassName: opts.ClassName}

	switch spec.Format {
	case queries.ColumnFormatColoredBadge:
		c.Color = badgeColor(text)
	case queries.ColumnFormatDuration:
		if f, ok := format.Float(v); ok {
			c.Text = format.Duration(f)
			c.Full = text
		}
	case queries.ColumnFormatCodeDialog:
		limit := opts.MaxTruncate
		if limit == 0 {
			limit = queryTruncate
		}
		c.Text = format.Query(text, format.QueryOptions{
			CommentRemove: opts.HideQueryComment,
			Trim:          true,
			Truncate:      limit,
		})
		c.Full = format.Dedent(text)
		c.Title = opts.DialogTitle
		c.ClassName = opts.TriggerClassName
	case queries.ColumnFormatRelatedTime:
		if t, ok := parseTime(v); ok {
			c.Text = format.RelatedTime(t)
			c.Full = text
		}
	case queries.ColumnFormatBackgroundBar:
		if f, ok := format.Float(row[percentColumn(column)]); ok {
			c.Percent = f
		}
	case queries.ColumnFormatLink:
		c.Href = expandHref(opts.Href, p.Host, row)
	case queries.ColumnFormatAction:
		c.Actions = opts.Actions
	case queries.ColumnFormatNumber:
		if f, ok := format.Float(v); ok {
			c.Text = humanize.CommafWithDigits(f, 2)
		}
	case queries.ColumnFormatBoolean:
		if f, ok := format.Float(v); ok {
			c.Text = strconv.FormatBool(f != 0)
		}
	}
	return c
}

// percentColumn maps readable_x to its pct_x sibling.
func percentColumn(column string) string {
	return "pct_" + strings.TrimPrefix(column, "readable_")
}

func badgeColor(s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return badgeColors[h.Sum32()%uint32(len(badgeColors))]
}

// expandHref replaces [column] with the escaped row value and
// [ctx.hostId] with the host index.
func expandHref(href string, host int, row map[string]interface{}) string {
	return hrefRe.ReplaceAllStringFunc(href, func(m string) string {
		key := m[1 : len(m)-1]
		if key == "ctx.hostId" {
			return strconv.Itoa(host)
		}
		return url.PathEscape(format.Value(row[key]))
	})
}

func parseTime(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, x, time.Local); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
