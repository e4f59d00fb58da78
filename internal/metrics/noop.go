package metrics

import "time"

// NoopMetrics is a no-operation Recorder used when metrics are disabled.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordAuthURLGenerated(provider string, success bool)                 {}
func (n *NoopMetrics) RecordOAuthCallback(provider string, success bool)                    {}
func (n *NoopMetrics) RecordTokenIssued(tokenType string, generationTime time.Duration)     {}
func (n *NoopMetrics) RecordTokenValidation(result string, duration time.Duration)          {}
func (n *NoopMetrics) RecordTokenRefresh(success bool)                                      {}
func (n *NoopMetrics) RecordTokenRevoked()                                                  {}
func (n *NoopMetrics) RecordExternalAPICall(provider string, duration time.Duration)        {}
func (n *NoopMetrics) RecordHTTPRequest(method, path, status string, dur time.Duration)     {}
