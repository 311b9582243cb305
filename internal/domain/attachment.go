package domain

import "time"

// Attachment is a stored binary attached to a ticket record.
type Attachment struct {
	ID          string
	RecordTable string
	RecordID    string
	FileName    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}
