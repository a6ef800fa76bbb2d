package consts

const (
	TraceSweepPrefix   = "job-sweep"
	TraceManualPrefix  = "manual-sweep"
	TraceStartupPrefix = "startup"
	TraceHTTPPrefix    = "http"
)

const (
	ProfileURLPrefix = "https://twitter.com/"
)
