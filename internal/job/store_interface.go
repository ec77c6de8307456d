package job

import "time"

// JobStore is the storage contract the scheduler drives.
type JobStore interface {
	Add(j *Job) error
	Get(id string) (Job, bool)
	All() []Job
	List(limit, offset int, status string) ([]Job, int)
	Due(now time.Time) []string
	Start(id string) (Job, error)
	Complete(id string, result any, at time.Time) (Job, error)
	Fail(id string, errMsg string, at time.Time) (Job, error)
	Clear()
	Stats() Stats
}

var _ JobStore = (*Store)(nil)
