package orchestrator

// ConfigurationError reports invalid run input, rejected before any
// analyzer work starts.
type ConfigurationError struct {
	Field string
	Value string
}

func (e ConfigurationError) Error() string {
	return "invalid " + e.Field + ": " + e.Value
}

// AnalyzerFailure records one isolated analyzer failure inside a run
// report. The run itself continues.
type AnalyzerFailure struct {
	Framework string `json:"framework"`
	Cause     string `json:"cause"`
}
