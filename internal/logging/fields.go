package logging

// Shared attribute keys used across stage and component loggers.
const (
	FieldComponent       = "component"
	FieldEventType       = "event_type"
	FieldErrorHint       = "error_hint"
	FieldImpact          = "impact"
	FieldStage           = "stage"
	FieldJobID           = "job_id"
	FieldSubjectID       = "subject_id"
	FieldRequestID       = "request_id"
	FieldChapterIndex    = "chapter_index"
	FieldBackend         = "backend"
	FieldModel           = "model"
	FieldProgressPercent = "progress_percent"
	FieldProgressMessage = "progress_message"
)
