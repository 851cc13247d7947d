package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrdtools/employee-importer/constants"
)

func TestRowCountEstimator(t *testing.T) {
	t.Parallel()

	est := NewRowCountEstimator()

	tests := []struct {
		name   string
		status constants.JobStatus
		count  int64
		want   int
	}{
		{"pending is always zero", constants.JobStatusPending, 5000, 0},
		{"completed is always full", constants.JobStatusCompleted, 0, 100},
		{"completed ignores count", constants.JobStatusCompleted, 3, 100},
		{"error reports zero", constants.JobStatusError, 400, 0},
		{"processing no rows", constants.JobStatusProcessing, 0, 0},
		{"processing under one percent", constants.JobStatusProcessing, 99, 0},
		{"processing one percent", constants.JobStatusProcessing, 100, 1},
		{"processing mid file", constants.JobStatusProcessing, 4242, 42},
		{"processing caps at 99", constants.JobStatusProcessing, 9_900, 99},
		{"processing huge file still capped", constants.JobStatusProcessing, 1_000_000, 99},
		{"unknown status reports zero", constants.JobStatus("bogus"), 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, est.Estimate(tt.status, tt.count))
		})
	}
}
