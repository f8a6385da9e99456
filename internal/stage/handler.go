package stage

import (
	"context"

	"lectern/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
// Prepare validates inputs cheaply before long work begins; Execute does the
// work and may run for minutes.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}
