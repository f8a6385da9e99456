// Package api exposes the daemon's control surface over HTTP. Queue entries
// are converted into transport-friendly DTOs; handlers stay thin and delegate
// to the queue store, the workflow manager, and the transcript store.
package api
