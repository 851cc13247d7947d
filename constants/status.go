package constants

// JobStatus is the canonical status for rows in the jobs table.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending    JobStatus = "pending"    // created, not yet picked up
	JobStatusProcessing JobStatus = "processing" // rows being ingested
	JobStatusCompleted  JobStatus = "completed"  // terminal success
	JobStatusError      JobStatus = "error"      // terminal failure
)

// IsTerminal returns true for statuses that represent a final state.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}
