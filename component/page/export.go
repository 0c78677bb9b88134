package page

import (
	"io"

	"github.com/chdash/chdash/component/format"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
)

const (
	ExportCSV      = "csv"
	ExportTable    = "table"
	ExportMarkdown = "markdown"
)

var ErrUnknownExport = errors.New("unknown export format")

// Export writes the page rows in the given text format, using the raw
// values of the selected columns.
func (p *Page) Export(w io.Writer, kind string) error {
	t := table.NewWriter()
	header := make(table.Row, 0, len(p.Columns))
	for _, c := range p.Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)
	for _, r := range p.Rows {
		row := make(table.Row, 0, len(p.Columns))
		for _, c := range p.Columns {
			row = append(row, format.Value(r[c]))
		}
		t.AppendRow(row)
	}

	var out string
	switch kind {
	case ExportCSV:
		out = t.RenderCSV()
	case ExportTable:
		t.SetStyle(table.StyleLight)
		out = t.Render()
	case ExportMarkdown:
		out = t.RenderMarkdown()
	default:
		return errors.Wrapf(ErrUnknownExport, "%q", kind)
	}
	if _, err := io.WriteString(w, out+"\n"); err != nil {
		return errors.Wrap(err, "failed to write export")
	}
	return nil
}
