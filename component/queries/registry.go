package queries

var (
	registry []*QueryConfig
	byName   = map[string]*QueryConfig{}
)

func register(cfgs ...*QueryConfig) {
	for _, c := range cfgs {
		if _, ok := byName[c.Name]; ok {
			panic("duplicated query config " + c.Name)
		}
		registry = append(registry, c)
		byName[c.Name] = c
	}
}

func init() {
	register(
		runningQueriesConfig,
		historyQueriesConfig,
		failedQueriesConfig,
		expensiveQueriesConfig,
		mergesConfig,
		databaseTablesConfig,
		tableColumnsConfig,
		queryDetailConfig,
	)
}

// GetQueryConfigByName returns nil for unknown names.
func GetQueryConfigByName(name string) *QueryConfig {
	return byName[name]
}

// All lists every config in registration order.
func All() []*QueryConfig {
	return append([]*QueryConfig(nil), registry...)
}

// Navigable lists the configs that render as standalone pages.
func Navigable() []*QueryConfig {
	var res []*QueryConfig
	for _, c := range registry {
		if !c.Hidden {
			res = append(res, c)
		}
	}
	return res
}
