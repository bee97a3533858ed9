package probe

import (
	"context"
	"errors"

	awsmetadata "tasnim.dev/aws-probe/internal/aws/metadata"
	"tasnim.dev/aws-probe/internal/logger"
	"tasnim.dev/aws-probe/internal/utils"
)

// checkMetadata probes IMDSv2. Every problem here is a warning: a
// container may legitimately get credentials some other way.
func (r *Runner) checkMetadata(ctx context.Context) Result {
	r.nextStep("Metadata service")
	res := Result{Name: StepMetadata, Status: StatusPass}

	token, err := r.clients.Metadata.Token(ctx)
	if err != nil {
		r.metadataWarning("Metadata service", err)
		res.Status, res.Err = StatusWarn, err
		return res
	}
	r.out.OK("Metadata service reachable at %s (IMDSv2 token acquired)", r.clients.Metadata.Endpoint())

	role, err := r.clients.Metadata.RoleName(ctx, token)
	if err != nil {
		r.metadataWarning("Role lookup", err)
		res.Status, res.Err = StatusWarn, err
	} else {
		r.out.OK("Role name: %s", role)
	}

	doc, err := r.clients.Metadata.IdentityDocument(ctx)
	if err != nil {
		r.metadataWarning("Instance identity", err)
		if res.Err == nil {
			res.Status, res.Err = StatusWarn, err
		}
		return res
	}
	d := r.out.Details()
	d.Row("Instance", doc.InstanceID)
	d.Row("Type", doc.InstanceType)
	d.Row("Region", doc.Region)
	d.Row("Zone", doc.AvailabilityZone)
	d.Row("Account", utils.OrDash(doc.AccountID))
	d.Row("Image", utils.OrDash(doc.ImageID))
	r.out.Write(d)
	return res
}

func (r *Runner) metadataWarning(what string, err error) {
	logger.Log.Debug().Err(err).Msg(what)
	var se *awsmetadata.StatusError
	if errors.As(err, &se) {
		r.out.Warn("%s status code: %d", what, se.StatusCode)
		return
	}
	r.out.Warn("%s: %v", what, err)
}
