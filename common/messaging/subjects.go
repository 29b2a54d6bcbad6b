package messaging

// Diagnostic subjects follow {domain}.{resource}.{outcome}.
const (
	SubjectDiagnosticsResponse = "diagnostics.search.response"
	SubjectDiagnosticsFailure  = "diagnostics.search.failure"

	// SubjectDiagnosticsAll matches every search diagnostic.
	SubjectDiagnosticsAll = "diagnostics.search.>"
)

// Search requests arriving over the bus instead of HTTP.
const (
	SubjectSearchRequest = "search.music.request"
	QueueSearchWorkers   = "musicsearch-workers"
)
