package dashboard

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/chdash/chdash/component/charts"
	"github.com/chdash/chdash/component/clickhouse"
	"github.com/chdash/chdash/component/page"
	"github.com/chdash/chdash/component/queries"
	"github.com/chdash/chdash/component/querydetail"
	"github.com/chdash/chdash/config"

	"github.com/gin-gonic/gin"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var errInvalidArgument = errors.New("invalid argument")

// HostPool resolves host indexes from routes.
type HostPool interface {
	Get(index int) (*clickhouse.Host, error)
	Hosts() []*clickhouse.Host
}

type Service struct {
	pool HostPool
}

func NewService(pool HostPool) *Service {
	return &Service{pool: pool}
}

// HTTPService registers the JSON api under g.
func (s *Service) HTTPService(g *gin.RouterGroup) {
	g.GET("/queries", s.queriesHandler)
	g.GET("/hosts", s.hostsHandler)
	g.GET("/hosts/:host/queries/:query", s.queryRowsHandler)
	g.GET("/hosts/:host/query/:query_id", s.queryDetailHandler)
	g.GET("/hosts/:host/charts/:chart", s.chartHandler)
	g.GET("/hosts/:host/charts/:chart/svg", s.chartSVGHandler)
}

func NoStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Next()
}

func errorJSON(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{
		"status":  "error",
		"message": err.Error(),
	})
}

// statusOf maps request errors to http status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, clickhouse.ErrHostNotFound),
		errors.Is(err, page.ErrNotFound),
		errors.Is(err, charts.ErrUnknownChart):
		return http.StatusNotFound
	case errors.Is(err, queries.ErrMissingParam),
		errors.Is(err, charts.ErrInvalidInterval),
		errors.Is(err, page.ErrUnknownExport),
		errors.Is(err, errInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func (s *Service) host(raw string) (*clickhouse.Host, error) {
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.Wrapf(clickhouse.ErrHostNotFound, "invalid host index %q", raw)
	}
	return s.pool.Get(idx)
}

func filters(c *gin.Context) map[string]string {
	res := map[string]string{}
	for k, vs := range c.Request.URL.Query() {
		if len(vs) > 0 {
			res[k] = vs[0]
		}
	}
	return res
}

func (s *Service) queriesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   queries.All(),
	})
}

type hostItem struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Probed    bool   `json:"probed"`
	Healthy   bool   `json:"healthy"`
	LastError string `json:"last_error,omitempty"`
}

func (s *Service) hostsHandler(c *gin.Context) {
	hosts := s.pool.Hosts()
	items := make([]hostItem, 0, len(hosts))
	for _, h := range hosts {
		items = append(items, hostItem{
			Index:     h.Index,
			Name:      h.Name(),
			Probed:    h.Probed(),
			Healthy:   h.Healthy(),
			LastError: h.LastError(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   items,
	})
}

func (s *Service) queryRowsHandler(c *gin.Context) {
	h, err := s.host(c.Param("host"))
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	f := filters(c)
	exportKind := f["format"]
	delete(f, "format")

	p, err := page.Render(c.Request.Context(), h, h.Index, c.Param("query"), f, nil)
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	if p.Error != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": p.Error.Message,
			"error":   p.Error,
		})
		return
	}
	if exportKind == "" || exportKind == "json" {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"data":   p,
		})
		return
	}

	buf := bytesP.Get()
	defer bytesP.Put(buf)
	if err := p.Export(buf, exportKind); err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	contentType := "text/plain; charset=utf-8"
	if exportKind == page.ExportCSV {
		contentType = "text/csv; charset=utf-8"
		c.Header("Content-Disposition", `attachment; filename="`+p.Config.Name+`.csv"`)
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Service) queryDetailHandler(c *gin.Context) {
	h, err := s.host(c.Param("host"))
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	cfg := config.GetGlobalConfig().Dashboard
	v, err := querydetail.Render(c.Request.Context(), h, h.Index, c.Param("query_id"), cfg.QueryTruncate)
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	if v.Error != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": v.Error.Message,
			"error":   v.Error,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   v,
	})
}

// chartDescriptor reads the descriptor overrides from the query string.
func chartDescriptor(c *gin.Context) (queries.ChartDescriptor, error) {
	desc := queries.ChartDescriptor{
		Title:    c.Query("title"),
		Interval: c.Query("interval"),
	}
	if raw := c.Query("last_hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return desc, errors.Wrapf(errInvalidArgument, "last_hours %q", raw)
		}
		desc.LastHours = n
	}
	if raw := c.Query("legend"); raw != "" {
		show, err := strconv.ParseBool(raw)
		if err != nil {
			return desc, errors.Wrapf(errInvalidArgument, "legend %q", raw)
		}
		desc.ShowLegend = &show
	}
	return desc, nil
}

func (s *Service) loadChart(c *gin.Context) (*charts.Data, error) {
	h, err := s.host(c.Param("host"))
	if err != nil {
		return nil, err
	}
	def := charts.Get(c.Param("chart"))
	if def == nil {
		return nil, errors.Wrapf(charts.ErrUnknownChart, "%q", c.Param("chart"))
	}
	desc, err := chartDescriptor(c)
	if err != nil {
		return nil, err
	}
	desc = def.Resolve(desc, config.GetGlobalConfig().Dashboard.DefaultLastHours)
	return charts.Load(c.Request.Context(), h, def, desc)
}

func (s *Service) chartHandler(c *gin.Context) {
	data, err := s.loadChart(c)
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   data,
	})
}

func (s *Service) chartSVGHandler(c *gin.Context) {
	data, err := s.loadChart(c)
	if err != nil {
		errorJSON(c, statusOf(err), err)
		return
	}
	buf := bytesP.Get()
	defer bytesP.Put(buf)
	if err := data.RenderSVG(buf); err != nil {
		if errors.Is(err, charts.ErrNotEnoughData) {
			c.Status(http.StatusNoContent)
			return
		}
		log.Warn("failed to render chart", zap.String("chart", data.ChartID), zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// PageHandler serves the html pages addressed by host index:
//
//	/:host/:query
//	/:host/query/:query_id
//	/:host/database/:database[/:table]
//
// It reports false when the path is not a page path.
func (s *Service) PageHandler(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		return false
	}
	segs := strings.Split(strings.Trim(c.Request.URL.Path, "/"), "/")
	if len(segs) < 2 {
		return false
	}
	hostIdx, err := strconv.Atoi(segs[0])
	if err != nil {
		return false
	}
	switch {
	case len(segs) == 2:
		s.renderPage(c, hostIdx, segs[1], nil)
	case len(segs) == 3 && segs[1] == "query":
		s.renderDetail(c, hostIdx, segs[2])
	case len(segs) == 3 && segs[1] == "database":
		s.renderPage(c, hostIdx, "database-tables", map[string]string{"database": segs[2]})
	case len(segs) == 4 && segs[1] == "database":
		s.renderPage(c, hostIdx, "table-columns", map[string]string{"database": segs[2], "table": segs[3]})
	default:
		return false
	}
	return true
}

func (s *Service) renderError(c *gin.Context, nav navView, err error) {
	c.HTML(statusOf(err), "error.tmpl", errorView{Nav: nav, Message: err.Error()})
}

func (s *Service) renderPage(c *gin.Context, hostIdx int, name string, route map[string]string) {
	cfg := config.GetGlobalConfig().Dashboard
	nav := s.nav(hostIdx, name)
	h, err := s.pool.Get(hostIdx)
	if err != nil {
		s.renderError(c, nav, err)
		return
	}
	p, err := page.Render(c.Request.Context(), h, hostIdx, name, filters(c), route)
	if err != nil {
		s.renderError(c, nav, err)
		return
	}
	view := pageView{
		Nav:           nav,
		Page:          p,
		Rows:          p.Rows,
		QueryTruncate: cfg.QueryTruncate,
		RefreshSecs:   cfg.RefreshIntervalSecs,
		Presets:       presetViews(p, c.Request.URL.Query()),
		Charts:        chartViews(hostIdx, p.RelatedCharts),
	}
	if len(view.Rows) > cfg.MaxRows {
		view.Rows = view.Rows[:cfg.MaxRows]
		view.Truncated = true
	}
	c.HTML(http.StatusOK, "page.tmpl", view)
}

func (s *Service) renderDetail(c *gin.Context, hostIdx int, queryID string) {
	cfg := config.GetGlobalConfig().Dashboard
	nav := s.nav(hostIdx, "")
	h, err := s.pool.Get(hostIdx)
	if err != nil {
		s.renderError(c, nav, err)
		return
	}
	v, err := querydetail.Render(c.Request.Context(), h, hostIdx, queryID, cfg.QueryTruncate)
	if err != nil {
		s.renderError(c, nav, err)
		return
	}
	c.HTML(http.StatusOK, "detail.tmpl", detailView{Nav: nav, View: v})
}

func (s *Service) nav(hostIdx int, active string) navView {
	nav := navView{Host: hostIdx, Active: active, Configs: queries.Navigable()}
	for _, h := range s.pool.Hosts() {
		nav.Hosts = append(nav.Hosts, hostItem{Index: h.Index, Name: h.Name(), Probed: h.Probed(), Healthy: h.Healthy()})
	}
	return nav
}

func presetViews(p *page.Page, current url.Values) []presetView {
	active := map[string]bool{}
	for _, a := range p.ActivePresets {
		active[a.Key+"="+a.Value] = true
	}
	res := make([]presetView, 0, len(p.Config.FilterParamPresets))
	for _, preset := range p.Config.FilterParamPresets {
		q := url.Values{}
		for k, vs := range current {
			q[k] = append([]string(nil), vs...)
		}
		isActive := active[preset.Key+"="+preset.Value]
		if isActive {
			q.Del(preset.Key)
		} else {
			q.Set(preset.Key, preset.Value)
		}
		res = append(res, presetView{Name: preset.Name, Href: "?" + q.Encode(), Active: isActive})
	}
	return res
}

func chartViews(hostIdx int, related []queries.RelatedChart) []chartView {
	res := make([]chartView, 0, len(related))
	for _, rc := range related {
		q := url.Values{}
		if rc.Descriptor.Title != "" {
			q.Set("title", rc.Descriptor.Title)
		}
		if rc.Descriptor.Interval != "" {
			q.Set("interval", rc.Descriptor.Interval)
		}
		if rc.Descriptor.LastHours > 0 {
			q.Set("last_hours", strconv.Itoa(rc.Descriptor.LastHours))
		}
		q.Set("legend", strconv.FormatBool(rc.Descriptor.Legend()))
		base := "/api/v1/hosts/" + strconv.Itoa(hostIdx) + "/charts/" + url.PathEscape(rc.ChartID)
		res = append(res, chartView{
			ID:    rc.ChartID,
			Title: rc.Descriptor.Title,
			Src:   base + "/svg?" + q.Encode(),
			Data:  base + "?" + q.Encode(),
		})
	}
	return res
}
