package probe

import (
	"context"
	"fmt"

	awsclient "tasnim.dev/aws-probe/internal/aws"
	"tasnim.dev/aws-probe/internal/constants"
	"tasnim.dev/aws-probe/internal/logger"
	"tasnim.dev/aws-probe/internal/utils"
)

// checkS3Access resolves the credential chain and lists buckets with it.
func (r *Runner) checkS3Access(ctx context.Context) Result {
	r.nextStep("S3 access with ambient credentials")

	if r.clients.CredentialSource != nil {
		src, err := r.clients.CredentialSource(ctx)
		if err != nil {
			return r.hardFailure(StepS3Access, "Resolving credentials failed", err)
		}
		r.out.Info("Credential source: %s", src)
	}

	names, err := r.clients.S3.ListBucketNames(ctx)
	if err != nil {
		return r.hardFailure(StepS3Access, "S3 access failed", err)
	}

	r.out.OK("S3 access works: %d bucket(s) visible", len(names))
	if len(names) > 0 {
		preview := names[:min(len(names), constants.BucketPreviewCount)]
		d := r.out.Details()
		d.List(fmt.Sprintf("Buckets (first %d):", constants.BucketPreviewCount), preview)
		r.out.Write(d)
	}
	return Result{Name: StepS3Access, Status: StatusPass}
}

// checkIdentity calls GetCallerIdentity. It is skipped when S3 access
// already failed, since the same credentials would be used.
func (r *Runner) checkIdentity(ctx context.Context, access Result) Result {
	if access.Status == StatusFail {
		return r.skipped(StepIdentity, "Caller identity", "S3 access failed")
	}
	r.nextStep("Caller identity")

	id, err := r.clients.STS.CallerIdentity(ctx)
	if err != nil {
		return r.hardFailure(StepIdentity, "GetCallerIdentity failed", err)
	}

	r.out.OK("Current identity:")
	d := r.out.Details()
	d.Row("Account", id.Account)
	d.Row("ARN", id.ARN)
	d.Row("User ID", id.UserID)
	role, session, assumed := utils.AssumedRole(id.ARN)
	if assumed {
		d.Row("Role", role)
		d.Row("Session", session)
	}
	r.out.Write(d)

	if assumed && r.clients.IAM != nil {
		r.rolePolicies(ctx, role)
	}
	return Result{Name: StepIdentity, Status: StatusPass}
}

// rolePolicies lists what the role grants. Instance roles rarely carry
// iam:List* permissions, so a failure is informational only.
func (r *Runner) rolePolicies(ctx context.Context, role string) {
	policies, err := r.clients.IAM.RolePolicies(ctx, role)
	if err != nil {
		class, _ := awsclient.Classify(err)
		logger.Log.Debug().Err(err).Str("role", role).Msg("role policies unavailable")
		r.out.Info("Role policies unavailable (%s)", class)
		return
	}
	names := make([]string, 0, len(policies))
	for _, p := range policies {
		if p.Inline {
			names = append(names, p.Name+" (inline)")
			continue
		}
		names = append(names, p.Name)
	}
	d := r.out.Details()
	if len(names) == 0 {
		d.Row("Policies", "none")
	} else {
		d.List("Policies:", names)
	}
	r.out.Write(d)
}
