package iam

// RolePolicy is a policy granting permissions to a role. Inline policies
// have no ARN.
type RolePolicy struct {
	Name   string
	ARN    string
	Inline bool
}
