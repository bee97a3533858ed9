package metadata

import "fmt"

// InstanceIdentity is the subset of the instance identity document the
// probe prints.
type InstanceIdentity struct {
	InstanceID       string
	InstanceType     string
	Region           string
	AvailabilityZone string
	AccountID        string
	ImageID          string
}

// StatusError is returned when the metadata service answers with a
// non-200 status.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: metadata service returned status %d", e.Op, e.StatusCode)
}
