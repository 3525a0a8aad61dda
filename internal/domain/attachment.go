package domain

import "time"

// Attachment stores metadata for a binary object already uploaded to
// blob storage. The storage path encodes the owning work order id as a
// tenancy guard. Metadata and object live independent lifecycles.
type Attachment struct {
	ID          string
	WorkOrderID string
	UploaderID  string
	StoragePath string
	FileName    string
	MimeType    string
	SizeBytes   int64
	CreatedAt   time.Time
}
