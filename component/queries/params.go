package queries

import (
	"regexp"

	"github.com/pkg/errors"
)

var ErrMissingParam = errors.New("missing query parameter")

var placeholderRe = regexp.MustCompile(`\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*:\s*[^{}]+\}`)

// Params returns the `{name: Type}` placeholders of sql in order of first
// appearance.
func Params(sql string) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, m := range placeholderRe.FindAllStringSubmatch(sql, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Bind merges the default params, the query-string filters that name a
// default param or a preset key, and the route params, in that order.
// Every placeholder of the SQL has to be bound.
func Bind(cfg *QueryConfig, filters map[string]string, route map[string]string) (map[string]string, error) {
	params := make(map[string]string, len(cfg.DefaultParams)+len(route))
	for k, v := range cfg.DefaultParams {
		params[k] = v
	}
	for k, v := range filters {
		if acceptsFilter(cfg, k) {
			params[k] = v
		}
	}
	for k, v := range route {
		params[k] = v
	}
	for _, name := range Params(cfg.SQL) {
		if _, ok := params[name]; !ok {
			return nil, errors.Wrapf(ErrMissingParam, "%s of %s", name, cfg.Name)
		}
	}
	return params, nil
}

func acceptsFilter(cfg *QueryConfig, key string) bool {
	if _, ok := cfg.DefaultParams[key]; ok {
		return true
	}
	for _, p := range cfg.FilterParamPresets {
		if p.Key == key {
			return true
		}
	}
	return false
}

// ActivePresets returns the presets whose key is bound to their value.
func ActivePresets(cfg *QueryConfig, params map[string]string) []FilterParamPreset {
	var active []FilterParamPreset
	for _, p := range cfg.FilterParamPresets {
		if v, ok := params[p.Key]; ok && v == p.Value {
			active = append(active, p)
		}
	}
	return active
}
