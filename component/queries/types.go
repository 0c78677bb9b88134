package queries

import (
	"encoding/json"
)

// ColumnFormat is a display hint for one projected column.
type ColumnFormat string

const (
	ColumnFormatColoredBadge  ColumnFormat = "colored-badge"
	ColumnFormatDuration      ColumnFormat = "duration"
	ColumnFormatCode          ColumnFormat = "code"
	ColumnFormatCodeDialog    ColumnFormat = "code-dialog"
	ColumnFormatRelatedTime   ColumnFormat = "related-time"
	ColumnFormatBackgroundBar ColumnFormat = "background-bar"
	ColumnFormatLink          ColumnFormat = "link"
	ColumnFormatAction        ColumnFormat = "action"
	ColumnFormatNumber        ColumnFormat = "number"
	ColumnFormatText          ColumnFormat = "text"
	ColumnFormatBadge         ColumnFormat = "badge"
	ColumnFormatBoolean       ColumnFormat = "boolean"
)

// Action is a row operation offered by an action column.
type Action string

const (
	ActionKillQuery     Action = "kill-query"
	ActionExplainQuery  Action = "explain-query"
	ActionQuerySettings Action = "query-settings"
)

type ColumnFormatOptions struct {
	MaxTruncate      int    `json:"max_truncate,omitempty"`
	HideQueryComment bool   `json:"hide_query_comment,omitempty"`
	DialogTitle      string `json:"dialog_title,omitempty"`
	TriggerClassName string `json:"trigger_classname,omitempty"`
	// Href may reference row values as [column] and the host index as
	// [ctx.hostId].
	Href      string   `json:"href,omitempty"`
	ClassName string   `json:"class_name,omitempty"`
	Title     string   `json:"title,omitempty"`
	Actions   []Action `json:"actions,omitempty"`
}

type ColumnFormatSpec struct {
	Format  ColumnFormat         `json:"format"`
	Options *ColumnFormatOptions `json:"options,omitempty"`
}

func Format(f ColumnFormat) ColumnFormatSpec {
	return ColumnFormatSpec{Format: f}
}

func FormatWith(f ColumnFormat, opts ColumnFormatOptions) ColumnFormatSpec {
	return ColumnFormatSpec{Format: f, Options: &opts}
}

type FilterParamPreset struct {
	Name  string `json:"name"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ChartDescriptor carries the parameters a related chart is drawn with.
type ChartDescriptor struct {
	Title      string `json:"title,omitempty"`
	Interval   string `json:"interval,omitempty"`
	LastHours  int    `json:"last_hours,omitempty"`
	ShowLegend *bool  `json:"show_legend,omitempty"`
}

func (d ChartDescriptor) Legend() bool {
	return d.ShowLegend == nil || *d.ShowLegend
}

type RelatedChart struct {
	ChartID    string `json:"chart_id"`
	Descriptor ChartDescriptor
}

func (r RelatedChart) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ChartID string `json:"chart_id"`
		ChartDescriptor
		ShowLegend bool `json:"show_legend"`
	}{r.ChartID, r.Descriptor, r.Descriptor.Legend()})
}

// QueryConfig is the declarative description of one dashboard page.
type QueryConfig struct {
	Name               string                      `json:"name"`
	Description        string                      `json:"description,omitempty"`
	SQL                string                      `json:"sql"`
	Columns            []string                    `json:"columns,omitempty"`
	ColumnFormats      map[string]ColumnFormatSpec `json:"column_formats,omitempty"`
	DefaultParams      map[string]string           `json:"default_params,omitempty"`
	FilterParamPresets []FilterParamPreset         `json:"filter_param_presets,omitempty"`
	RelatedCharts      []RelatedChart              `json:"related_charts,omitempty"`
	ClickHouseSettings map[string]string           `json:"clickhouse_settings,omitempty"`
	Docs               string                      `json:"docs,omitempty"`
	// Hidden configs back other pages and are left out of navigation.
	Hidden bool `json:"hidden,omitempty"`
}

func (c *QueryConfig) ColumnFormat(column string) (ColumnFormatSpec, bool) {
	f, ok := c.ColumnFormats[column]
	return f, ok
}

func boolPtr(b bool) *bool {
	return &b
}
