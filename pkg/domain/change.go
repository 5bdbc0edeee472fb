package domain

// FieldChange records the before/after values of a single profile field.
// Values are strings for every profile field today; old may be nil when the
// field had never been set (e.g. the first profile picture upload).
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeSet maps changed field names to their old/new values. A ChangeSet
// handed to the audit recorder is never empty: no-op updates are rejected
// before an entry is written.
type ChangeSet map[string]FieldChange
