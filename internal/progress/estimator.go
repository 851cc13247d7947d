// Package progress estimates a completion percentage for polling clients.
package progress

import "github.com/hrdtools/employee-importer/constants"

// Estimator maps a job's status and its record count so far to a percentage
// in [0,100]. Estimates are approximate: the total row count of a file is
// unknown until it has been fully parsed.
type Estimator interface {
	Estimate(status constants.JobStatus, recordCount int64) int
}

// RowCountEstimator assumes roughly 9,900 rows correspond to a full import:
// progress while processing is min(99, recordCount/100). It under-estimates
// large files and over-estimates small ones, which is acceptable for a
// polling UI.
type RowCountEstimator struct{}

func NewRowCountEstimator() RowCountEstimator {
	return RowCountEstimator{}
}

func (RowCountEstimator) Estimate(status constants.JobStatus, recordCount int64) int {
	switch status {
	case constants.JobStatusCompleted:
		return 100
	case constants.JobStatusProcessing:
		p := recordCount / 100
		if p > 99 {
			return 99
		}
		return int(p)
	default:
		// pending, error, and anything unknown report zero.
		return 0
	}
}
