// internal/models/normalization.go
package models

// NormalizationTask is the detached unit of background work scheduled after
// a submission commits.
type NormalizationTask struct {
	ResponseID string   `json:"responseId"`
	Answers    []Answer `json:"answers"`
}
