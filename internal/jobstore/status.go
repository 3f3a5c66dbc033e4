package jobstore

// Status is a pagestatus row's lifecycle state: the five outcomes
// internal/worker.Status reports, plus the two dispatcher-owned states a
// row passes through before and during processing (spec §6
// "update_status(...status∈{OK,FAIL,DELETED,INVALID,TRANSLATION,RUNNING,PAUSED})").
type Status string

const (
	StatusOK          Status = "OK"
	StatusFail        Status = "FAIL"
	StatusDeleted     Status = "DELETED"
	StatusInvalid     Status = "INVALID"
	StatusTranslation Status = "TRANSLATION"
	StatusRunning     Status = "RUNNING"
	StatusPaused      Status = "PAUSED"
)

// excludedFromDequeue are the statuses PrepareNextPage's selection query
// never picks up: a row already claimed by another task, a page that no
// longer exists, or one that is a translation subpage and will never
// succeed (spec §4.10 step 1, §6 "dequeue_next").
var excludedFromDequeue = []Status{StatusRunning, StatusDeleted, StatusTranslation} //nolint:gochecknoglobals
