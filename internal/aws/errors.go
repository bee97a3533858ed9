package aws

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aws/smithy-go"
)

// ErrorClass is a coarse, human-oriented classification of an AWS error.
type ErrorClass string

const (
	ClassBucketMissing      ErrorClass = "bucket-missing"
	ClassObjectMissing      ErrorClass = "object-missing"
	ClassAccessDenied       ErrorClass = "access-denied"
	ClassInvalidCredentials ErrorClass = "invalid-credentials"
	ClassKMS                ErrorClass = "kms"
	ClassUnknown            ErrorClass = "unknown"
)

// Hint returns a one-line suggestion for the operator.
func (c ErrorClass) Hint() string {
	switch c {
	case ClassBucketMissing:
		return "the bucket does not exist; check the bucket name and region"
	case ClassObjectMissing:
		return "the object does not exist"
	case ClassAccessDenied:
		return "the role is missing s3 permissions for this bucket or key"
	case ClassInvalidCredentials:
		return "the credentials were rejected; check the instance profile or env vars"
	case ClassKMS:
		return "the role cannot use the KMS key for server-side encryption"
	default:
		return ""
	}
}

// Classify maps an error returned by the SDK to an ErrorClass and the raw
// service error code (empty when the error did not come from the service).
func Classify(err error) (ErrorClass, string) {
	if err == nil {
		return "", ""
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case code == "NoSuchBucket":
			return ClassBucketMissing, code
		case code == "NoSuchKey", code == "NotFound":
			return ClassObjectMissing, code
		case code == "AccessDenied", code == "Forbidden", code == "AllAccessDisabled":
			return ClassAccessDenied, code
		case code == "InvalidAccessKeyId", code == "SignatureDoesNotMatch",
			code == "ExpiredToken", code == "InvalidToken", code == "InvalidClientTokenId":
			return ClassInvalidCredentials, code
		case strings.HasPrefix(code, "KMS."):
			return ClassKMS, code
		}
		if class := classifyStatus(err); class != ClassUnknown {
			return class, code
		}
		return ClassUnknown, code
	}

	return classifyStatus(err), ""
}

// classifyStatus falls back to the HTTP status for responses without a code
// (HEAD requests carry no body).
func classifyStatus(err error) ErrorClass {
	var respErr interface{ HTTPStatusCode() int }
	if !errors.As(err, &respErr) {
		return ClassUnknown
	}
	switch respErr.HTTPStatusCode() {
	case http.StatusNotFound:
		return ClassObjectMissing
	case http.StatusForbidden:
		return ClassAccessDenied
	}
	return ClassUnknown
}
