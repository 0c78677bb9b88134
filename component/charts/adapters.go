package charts

import (
	"io"
	"math"
	"strconv"

	"github.com/chdash/chdash/component/format"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNotEnoughData = errors.New("not enough data to draw the chart")

const (
	defaultWidth  = 800
	defaultHeight = 300
)

// ReadableFormat picks the unit formatter of an adapter.
type ReadableFormat string

const (
	ReadableNone     ReadableFormat = ""
	ReadableSize     ReadableFormat = "size"
	ReadableQuantity ReadableFormat = "quantity"
	// ReadableLookup formats through sibling readable columns.
	ReadableLookup ReadableFormat = "lookup"
)

// Formatter renders a plotted value as axis or tooltip text.
type Formatter func(v float64) string

func rawValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func unitFormatter(readable ReadableFormat) Formatter {
	switch readable {
	case ReadableSize:
		return func(v float64) string { return format.ReadableSize(v, 1) }
	case ReadableQuantity:
		return format.ReadableQuantity
	default:
		return rawValue
	}
}

// lookup returns column of the first row where any of keys equals v.
func lookup(data []map[string]interface{}, keys []string, column func(i int) string, v float64) (string, bool) {
	for i, key := range keys {
		col := column(i)
		if col == "" {
			continue
		}
		for _, row := range data {
			f, ok := format.Float(row[key])
			if !ok || f != v {
				continue
			}
			if s := format.Value(row[col]); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

type Point struct {
	X         string  `json:"x"`
	Y         float64 `json:"y"`
	Formatted string  `json:"formatted"`
}

type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

func buildSeries(data []map[string]interface{}, index string, categories []string, f Formatter) []Series {
	series := make([]Series, 0, len(categories))
	for _, cat := range categories {
		s := Series{Name: cat, Points: make([]Point, 0, len(data))}
		for _, row := range data {
			y, ok := format.Float(row[cat])
			if !ok {
				continue
			}
			s.Points = append(s.Points, Point{X: format.Value(row[index]), Y: y, Formatted: f(y)})
		}
		series = append(series, s)
	}
	return series
}

func maxY(series []Series) float64 {
	m := 0.0
	for _, s := range series {
		for _, p := range s.Points {
			m = math.Max(m, p.Y)
		}
	}
	if m == 0 {
		return 1
	}
	return m * 1.1
}

func axisFormatter(f Formatter) chart.ValueFormatter {
	return func(v interface{}) string {
		if fv, ok := v.(float64); ok {
			return f(fv)
		}
		return format.Value(v)
	}
}

// AreaChart draws one filled line per category over the index column.
type AreaChart struct {
	Title           string
	Data            []map[string]interface{}
	Index           string
	Categories      []string
	Readable        ReadableFormat
	ReadableColumns []string
	ShowLegend      bool
}

func (c *AreaChart) Formatter() Formatter {
	if c.Readable != ReadableNone && len(c.ReadableColumns) > 0 {
		return func(v float64) string {
			column := func(i int) string {
				if i < len(c.ReadableColumns) {
					return c.ReadableColumns[i]
				}
				return ""
			}
			if s, ok := lookup(c.Data, c.Categories, column, v); ok {
				return s
			}
			return rawValue(v)
		}
	}
	return unitFormatter(c.Readable)
}

func (c *AreaChart) Series() []Series {
	return buildSeries(c.Data, c.Index, c.Categories, c.Formatter())
}

func (c *AreaChart) RenderSVG(w io.Writer) error {
	series := c.Series()
	labels := make([]string, 0, len(c.Data))
	for _, row := range c.Data {
		labels = append(labels, format.Value(row[c.Index]))
	}
	if len(labels) < 2 {
		return ErrNotEnoughData
	}

	graph := chart.Chart{
		Title:  c.Title,
		Width:  defaultWidth,
		Height: defaultHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Ticks: startEndTicks(labels),
		},
		YAxis: chart.YAxis{
			ValueFormatter: axisFormatter(c.Formatter()),
			Range:          &chart.ContinuousRange{Min: 0, Max: maxY(series)},
		},
	}
	for i, s := range series {
		xs := make([]float64, 0, len(s.Points))
		ys := make([]float64, 0, len(s.Points))
		for j, p := range s.Points {
			xs = append(xs, float64(j))
			ys = append(ys, p.Y)
		}
		color := chart.GetDefaultColor(i)
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				FillColor:   color.WithAlpha(64),
			},
		})
	}
	if c.ShowLegend {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}
	return errors.Wrap(graph.Render(chart.SVG, w), "failed to render area chart")
}

// startEndTicks labels only the first and last point of the index.
func startEndTicks(labels []string) []chart.Tick {
	last := len(labels) - 1
	return []chart.Tick{
		{Value: 0, Label: labels[0]},
		{Value: float64(last), Label: labels[last]},
	}
}

// BarChart draws one bar per row, stacked when there are several
// categories.
type BarChart struct {
	Title          string
	Data           []map[string]interface{}
	Index          string
	Categories     []string
	Readable       ReadableFormat
	ReadableColumn string
	ShowLegend     bool
}

// Formatter looks the value up in the category columns rather than the
// index column, the index of a bar chart holds labels, not values.
func (c *BarChart) Formatter() Formatter {
	if c.Readable != ReadableNone && c.ReadableColumn != "" {
		return func(v float64) string {
			column := func(int) string { return c.ReadableColumn }
			if s, ok := lookup(c.Data, c.Categories, column, v); ok {
				return s
			}
			return rawValue(v)
		}
	}
	return unitFormatter(c.Readable)
}

func (c *BarChart) Series() []Series {
	return buildSeries(c.Data, c.Index, c.Categories, c.Formatter())
}

func (c *BarChart) RenderSVG(w io.Writer) error {
	series := c.Series()
	if len(c.Data) == 0 || len(series) == 0 {
		return ErrNotEnoughData
	}
	style := chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}}

	if len(series) == 1 {
		bars := make([]chart.Value, 0, len(series[0].Points))
		for i, p := range series[0].Points {
			bars = append(bars, chart.Value{
				Label: p.X,
				Value: p.Y,
				Style: chart.Style{FillColor: chart.GetDefaultColor(i), StrokeColor: chart.GetDefaultColor(i)},
			})
		}
		if len(bars) == 0 {
			return ErrNotEnoughData
		}
		graph := chart.BarChart{
			Title:      c.Title,
			Width:      defaultWidth,
			Height:     defaultHeight,
			Background: style,
			BarWidth:   barWidth(len(bars)),
			YAxis: chart.YAxis{
				ValueFormatter: axisFormatter(c.Formatter()),
				Range:          &chart.ContinuousRange{Min: 0, Max: maxY(series)},
			},
			Bars: bars,
		}
		return errors.Wrap(graph.Render(chart.SVG, w), "failed to render bar chart")
	}

	stacked := chart.StackedBarChart{
		Title:      c.Title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: style,
	}
	for _, row := range c.Data {
		bar := chart.StackedBar{Name: format.Value(row[c.Index])}
		for i, cat := range c.Categories {
			y, ok := format.Float(row[cat])
			if !ok {
				continue
			}
			bar.Values = append(bar.Values, chart.Value{
				Label: cat,
				Value: y,
				Style: chart.Style{FillColor: chart.GetDefaultColor(i), StrokeColor: drawing.ColorWhite},
			})
		}
		if len(bar.Values) > 0 {
			stacked.Bars = append(stacked.Bars, bar)
		}
	}
	if len(stacked.Bars) == 0 {
		return ErrNotEnoughData
	}
	return errors.Wrap(stacked.Render(chart.SVG, w), "failed to render stacked bar chart")
}

func barWidth(n int) int {
	w := (defaultWidth - 80) / (n * 2)
	if w < 4 {
		return 4
	}
	if w > 60 {
		return 60
	}
	return w
}

// BarList is a ranked list of name/value rows.
type BarList struct {
	Title           string
	Data            []map[string]interface{}
	FormattedColumn string
}

func (c *BarList) Formatter() Formatter {
	if c.FormattedColumn != "" {
		return func(v float64) string {
			column := func(int) string { return c.FormattedColumn }
			if s, ok := lookup(c.Data, []string{"value"}, column, v); ok {
				return s
			}
			return rawValue(v)
		}
	}
	return rawValue
}

func (c *BarList) Series() []Series {
	return buildSeries(c.Data, "name", []string{"value"}, c.Formatter())
}

func (c *BarList) RenderSVG(w io.Writer) error {
	bc := BarChart{
		Title:          c.Title,
		Data:           c.Data,
		Index:          "name",
		Categories:     []string{"value"},
		Readable:       ReadableLookup,
		ReadableColumn: c.FormattedColumn,
	}
	return bc.RenderSVG(w)
}
