package utils

import "strings"

// ShortName extracts the last segment after "/" from an ARN or path.
// Returns the input unchanged if no "/" is found.
func ShortName(arn string) string {
	if parts := strings.Split(arn, "/"); len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return arn
}

// SecondToLast extracts the second-to-last "/" segment from an ARN.
// Returns the input unchanged if fewer than 2 segments exist.
func SecondToLast(arn string) string {
	parts := strings.Split(arn, "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return arn
}

// AssumedRole splits an STS assumed-role ARN
// (arn:<partition>:sts::<account>:assumed-role/<role>/<session>) into its
// role and session names. ok is false for any other ARN shape.
func AssumedRole(arn string) (role, session string, ok bool) {
	fields := strings.SplitN(arn, ":", 6)
	if len(fields) != 6 || fields[2] != "sts" {
		return "", "", false
	}
	resource := fields[5]
	if !strings.HasPrefix(resource, "assumed-role/") || strings.Count(resource, "/") < 2 {
		return "", "", false
	}
	return SecondToLast(resource), ShortName(resource), true
}
