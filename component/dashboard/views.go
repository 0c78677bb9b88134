package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/chdash/chdash/component/page"
	"github.com/chdash/chdash/component/queries"
	"github.com/chdash/chdash/component/querydetail"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type navView struct {
	Host    int
	Active  string
	Hosts   []hostItem
	Configs []*queries.QueryConfig
}

type presetView struct {
	Name   string
	Href   string
	Active bool
}

type chartView struct {
	ID    string
	Title string
	Src   string
	Data  string
}

type pageView struct {
	Nav           navView
	Page          *page.Page
	Rows          []map[string]interface{}
	Truncated     bool
	QueryTruncate int
	RefreshSecs   int
	Presets       []presetView
	Charts        []chartView
}

type detailView struct {
	Nav  navView
	View *querydetail.View
}

type errorView struct {
	Nav     navView
	Message string
}

var funcs = template.FuncMap{
	"scoped": page.ScopedLink,
	"percent": func(f float64) string {
		return strconv.FormatFloat(f, 'f', 2, 64) + "%"
	},
	"dict": func(kv ...interface{}) (map[string]interface{}, error) {
		if len(kv)%2 != 0 {
			return nil, fmt.Errorf("dict needs key value pairs, got %d args", len(kv))
		}
		m := make(map[string]interface{}, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict key %v is not a string", kv[i])
			}
			m[k] = kv[i+1]
		}
		return m, nil
	},
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))
}
