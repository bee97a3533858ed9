package s3

import "time"

// ObjectInfo is what HeadObject reports about an uploaded object.
type ObjectInfo struct {
	Bucket               string
	Key                  string
	Size                 int64
	ETag                 string
	ServerSideEncryption string
	LastModified         time.Time
}

// UploadResult describes a completed upload.
type UploadResult struct {
	Location string
	ETag     string
	Size     int64
}
