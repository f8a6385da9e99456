package queue

import "errors"

// ErrSubjectBusy indicates a subject already has a non-terminal job.
var ErrSubjectBusy = errors.New("subject already has an active job")

// ErrNotFound indicates the requested job does not exist.
var ErrNotFound = errors.New("job not found")
