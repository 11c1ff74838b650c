package ingest

// Result holds the outcome of one import operation.
type Result struct {
	SessionsImported       int      `json:"sessions_imported"`
	ItemsImported          int      `json:"items_imported"`
	SetsInserted           int      `json:"sets_inserted"`
	CustomExercisesCreated int      `json:"custom_exercises_created"`
	RecordsDetected        int      `json:"records_detected"`
	RecordMessages         []string `json:"record_messages,omitempty"`

	Message string `json:"message,omitempty"`
}

// Merge folds another result into this one.
func (r *Result) Merge(other *Result) {
	r.SessionsImported += other.SessionsImported
	r.ItemsImported += other.ItemsImported
	r.SetsInserted += other.SetsInserted
	r.CustomExercisesCreated += other.CustomExercisesCreated
	r.RecordsDetected += other.RecordsDetected
	r.RecordMessages = append(r.RecordMessages, other.RecordMessages...)
}
