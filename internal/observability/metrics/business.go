package metrics

import "time"

// RecordParse records one parse operation.
// Outcome is "success" when items were returned, "empty" for zero items and "error" on failure.
func RecordParse(source, outcome string, duration time.Duration, items int) {
	if source == "" {
		source = "none"
	}
	ParseRequestsTotal.WithLabelValues(source, outcome).Inc()
	ParseDuration.WithLabelValues(source).Observe(duration.Seconds())
	if outcome != "error" {
		ParseItemsReturned.Observe(float64(items))
	}
}

// RecordPageFetch records a page fetch attempt across all header profiles.
//
//	start := time.Now()
//	page, err := f.Fetch(ctx, url)
//	RecordPageFetch(result, profile, time.Since(start), len(page.Body))
func RecordPageFetch(result, profile string, duration time.Duration, size int) {
	PageFetchTotal.WithLabelValues(result, profile).Inc()
	PageFetchDuration.Observe(duration.Seconds())
	if size > 0 {
		PageFetchSize.Observe(float64(size))
	}
}

// RecordLLMRequest records one LLM completion call.
func RecordLLMRequest(provider, outcome string, duration time.Duration) {
	LLMRequestsTotal.WithLabelValues(provider, outcome).Inc()
	if duration > 0 {
		LLMRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	}
}

// RecordExtraction records the result of an AI extraction attempt.
func RecordExtraction(result string) {
	ExtractionResultsTotal.WithLabelValues(result).Inc()
}

// RecordHeuristicEntries records how many entries the heuristic parser produced.
func RecordHeuristicEntries(count int) {
	HeuristicEntries.Observe(float64(count))
}

// RecordCacheLookup records a cache hit, miss or error for the given backend.
func RecordCacheLookup(backend, result string) {
	CacheRequestsTotal.WithLabelValues(backend, result).Inc()
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "insert_parse_log", "list_parse_logs").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHistoryWrite records whether a parse history row was stored.
func RecordHistoryWrite(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	HistoryWritesTotal.WithLabelValues(result).Inc()
}
