package analysis

// MetricInfo describes how a metric is labelled in reports.
type MetricInfo struct {
	Title string
	Unit  string
}

var metricInfo = map[string]MetricInfo{
	"outOfRailTime":          {"Out of Rail Time", "s"},
	"outOfRailVelocity":      {"Out of Rail Velocity", "m/s"},
	"apogeeTime":             {"Apogee Time", "s"},
	"apogeeAltitude":         {"Apogee Altitude", "m"},
	"apogeeX":                {"Apogee X Position", "m"},
	"apogeeY":                {"Apogee Y Position", "m"},
	"impactX":                {"Impact X Position", "m"},
	"impactY":                {"Impact Y Position", "m"},
	"impactVelocity":         {"Impact Velocity", "m/s"},
	"initialStaticMargin":    {"Initial Static Margin", "c"},
	"outOfRailStaticMargin":  {"Out of Rail Static Margin", "c"},
	"finalStaticMargin":      {"Final Static Margin", "c"},
	"numberOfEvents":         {"Number of Parachute Events", ""},
	"maxVelocity":            {"Maximum Velocity", "m/s"},
	"drogueTriggerTime":      {"Drogue Trigger Time", "s"},
	"drogueInflatedTime":     {"Drogue Fully Inflated Time", "s"},
	"drogueInflatedVelocity": {"Drogue Parachute Fully Inflated Velocity", "m/s"},
	"executionTime":          {"Execution Time", "s"},
}

// Info returns the report label of a metric. Unknown names are their own
// title.
func Info(name string) MetricInfo {
	if mi, ok := metricInfo[name]; ok {
		return mi
	}
	return MetricInfo{Title: name}
}
