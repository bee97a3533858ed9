// Package probe runs the ambient-credential checklist and prints the report.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	awsclient "tasnim.dev/aws-probe/internal/aws"
	awsiam "tasnim.dev/aws-probe/internal/aws/iam"
	awsmetadata "tasnim.dev/aws-probe/internal/aws/metadata"
	awss3 "tasnim.dev/aws-probe/internal/aws/s3"
	awssts "tasnim.dev/aws-probe/internal/aws/sts"
	"tasnim.dev/aws-probe/internal/logger"
	"tasnim.dev/aws-probe/internal/report"
	"tasnim.dev/aws-probe/internal/utils"
)

// Step names, as they appear in the Summary.
const (
	StepS3Access  = "s3-access"
	StepMetadata  = "metadata"
	StepIdentity  = "identity"
	StepRoundTrip = "roundtrip"
)

// Clients are the service wrappers a run drives.
type Clients struct {
	S3       *awss3.Client
	STS      *awssts.Client
	Metadata *awsmetadata.Client
	// IAM is optional; when set, the policies of an assumed role are listed.
	IAM *awsiam.Client
	// CredentialSource resolves the credential chain and names its provider.
	CredentialSource func(ctx context.Context) (string, error)
}

// Options control which steps run and where round-trip artifacts go.
type Options struct {
	Bucket        string
	KeyPrefix     string
	SSE           s3types.ServerSideEncryption
	MountPath     string
	SkipMetadata  bool
	SkipRoundTrip bool
	// Region and Hostname are display-only.
	Region   string
	Hostname string
	// TempDir is where the local original and the fallback download
	// directory live. Defaults to os.TempDir().
	TempDir string
}

type Runner struct {
	clients Clients
	opts    Options
	out     *report.Printer
	step    int

	now   func() time.Time
	newID func() uuid.UUID
}

func NewRunner(clients Clients, opts Options, w io.Writer) *Runner {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Runner{
		clients: clients,
		opts:    opts,
		out:     report.NewPrinter(w),
		now:     time.Now,
		newID:   uuid.New,
	}
}

// Run executes the full checklist: S3 access, metadata service, caller
// identity, then the object round-trip.
func (r *Runner) Run(ctx context.Context) Summary {
	var s Summary
	r.header("Ambient AWS credential probe")

	access := r.checkS3Access(ctx)
	s.Add(access)

	if r.opts.SkipMetadata {
		s.Add(r.skipped(StepMetadata, "Metadata service", "disabled"))
	} else {
		s.Add(r.checkMetadata(ctx))
	}

	identity := r.checkIdentity(ctx, access)
	s.Add(identity)

	credsOK := access.Status == StatusPass && identity.Status == StatusPass
	s.Add(r.checkRoundTrip(ctx, credsOK))

	r.footer(s)
	return s
}

// RunMetadata runs the metadata service step alone.
func (r *Runner) RunMetadata(ctx context.Context) Summary {
	var s Summary
	r.header("Instance metadata service probe")
	s.Add(r.checkMetadata(ctx))
	r.footer(s)
	return s
}

// RunRoundTrip checks S3 access, then runs the round-trip.
func (r *Runner) RunRoundTrip(ctx context.Context) Summary {
	var s Summary
	r.header("S3 object round-trip probe")
	access := r.checkS3Access(ctx)
	s.Add(access)
	s.Add(r.checkRoundTrip(ctx, access.Status == StatusPass))
	r.footer(s)
	return s
}

func (r *Runner) header(title string) {
	r.out.Rule()
	r.out.Title(title)
	d := r.out.Details()
	d.Row("Time", r.now().Format(utils.DateTimeSec))
	d.Row("Host", utils.OrDash(r.opts.Hostname))
	d.Row("Region", utils.OrDash(r.opts.Region))
	r.out.Write(d)
	r.out.Rule()
}

func (r *Runner) footer(s Summary) {
	logger.Log.Debug().Str("results", s.String()).Msg("probe finished")
	if s.OK() {
		msg := "All checks passed"
		if w := s.Warned(); len(w) > 0 {
			msg += fmt.Sprintf(" (warnings: %s)", strings.Join(w, ", "))
		}
		r.out.Banner(report.SuccessStyle, msg)
		return
	}
	r.out.Banner(report.ErrorStyle, fmt.Sprintf("Probe failed: %s", strings.Join(s.Failed(), ", ")))
}

func (r *Runner) nextStep(title string) {
	r.step++
	r.out.Step(r.step, title)
}

func (r *Runner) skipped(name, title, reason string) Result {
	r.nextStep(title)
	r.out.Skip("skipped: %s", reason)
	return Result{Name: name, Status: StatusSkip}
}

// hardFailure prints the error with its concrete type, service error code,
// classification and stack trace, and logs it. The trace is the one the
// service wrapper captured; errors without one get a trace from here.
func (r *Runner) hardFailure(name, msg string, err error) Result {
	traced := err
	if stackOf(err) == nil {
		traced = pkgerrors.WithStack(err)
	}
	class, code := awsclient.Classify(err)

	r.out.Fail("%s: %v", msg, err)
	d := r.out.Details()
	d.Row("Type", fmt.Sprintf("%T", rootCause(err)))
	if code != "" {
		d.Row("Code", code)
	}
	d.Row("Class", string(class))
	if hint := class.Hint(); hint != "" {
		d.Row("Hint", hint)
	}
	r.out.Write(d)

	if st := stackOf(traced); st != nil {
		r.out.Info("Trace:")
		r.out.Trace(fmt.Sprintf("%+v", st))
	}

	logger.Log.Error().Stack().Err(traced).Str("step", name).Str("class", string(class)).Msg(msg)
	return Result{Name: name, Status: StatusFail, Err: err}
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// stackOf returns the outermost stack trace recorded in err's chain.
func stackOf(err error) pkgerrors.StackTrace {
	var st stackTracer
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return nil
}

// rootCause returns the innermost error of a wrap chain.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
