package app

// AppScope keys the application graph.
type AppScope struct{}

//scopemerge:module
//scopemerge:contributes AppScope replaces=LegacyModule
type NetworkModule struct{}

type (
	// LegacyModule predates NetworkModule.
	//scopemerge:module
	//scopemerge:contributes scope=AppScope
	LegacyModule struct{}

	//scopemerge:module
	//scopemerge:contributes scope=AppScope
	MetricsModule struct{}
)

//scopemerge:merge scope=AppScope includes=NetworkModule exclude=LegacyModule
type AppComponent struct{}
