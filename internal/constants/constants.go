package constants

import "time"

// AppName is used for the config directory and temp-dir names.
const AppName = "aws-probe"

// Metadata service defaults. The token TTL matches what the AWS CLI requests.
const (
	DefaultMetadataEndpoint = "http://169.254.169.254"
	MetadataTokenTTLSeconds = 21600
	DefaultMetadataTimeout  = 5 * time.Second
)

// DefaultRunTimeout bounds the whole checklist.
const DefaultRunTimeout = 60 * time.Second

// BucketPreviewCount is how many bucket names the S3 access step prints.
const BucketPreviewCount = 3

// DefaultSSE is requested on upload unless configured otherwise. "none" disables it.
const (
	DefaultSSE = "AES256"
	SSENone    = "none"
)

// Round-trip artifacts.
const (
	DownloadSubdir      = "s3-test-downloads"
	FallbackDownloadDir = AppName + "-downloads"
	WriteTestFile       = ".aws-probe-write-test"
	TestObjectContent   = "aws-probe round-trip test object\nIf you can read this after download, upload and download both work.\n"
)
