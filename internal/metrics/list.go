package metrics

import (
	"strconv"
	"time"
)

// ListFetchApplied records a fetch whose response became the screen state.
func ListFetchApplied(screen string) {
	ListFetchesTotal.WithLabelValues(screen, "applied").Inc()
}

// ListFetchFailed records a fetch whose error became the screen state.
func ListFetchFailed(screen string) {
	ListFetchesTotal.WithLabelValues(screen, "error").Inc()
}

// ListFetchStale records a response discarded because newer state exists.
func ListFetchStale(screen string) {
	ListFetchesTotal.WithLabelValues(screen, "stale").Inc()
}

// ListFetchObserved records fetch latency.
func ListFetchObserved(screen string, d time.Duration) {
	ListFetchDuration.WithLabelValues(screen).Observe(d.Seconds())
}

// SearchSettled records a debounced search term reaching the controller.
func SearchSettled(screen string) {
	DebounceSettlesTotal.WithLabelValues(screen).Inc()
}

// APIRequest records one backend call. status is the HTTP status code, or 0
// when no response was received.
func APIRequest(resource, method string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	APIRequestsTotal.WithLabelValues(resource, method, label).Inc()
	APIRequestDuration.WithLabelValues(resource, method).Observe(d.Seconds())
}
