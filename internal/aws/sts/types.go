package sts

// CallerIdentity is the identity the ambient credentials resolve to.
type CallerIdentity struct {
	Account string
	ARN     string
	UserID  string
}
