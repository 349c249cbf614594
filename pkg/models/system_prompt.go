package models

import "time"

// SystemPromptSnapshot is one immutable version of the base instruction text
// sent to the model. Snapshots are append-only; the current one has the highest ID.
type SystemPromptSnapshot struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	ChangeNote *string   `json:"change_note,omitempty"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// LatestSnapshot returns the snapshot with the highest ID, or nil for an empty log.
func LatestSnapshot(log []*SystemPromptSnapshot) *SystemPromptSnapshot {
	var latest *SystemPromptSnapshot
	for _, s := range log {
		if s == nil {
			continue
		}
		if latest == nil || s.ID > latest.ID {
			latest = s
		}
	}
	return latest
}
