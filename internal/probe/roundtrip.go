package probe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tasnim.dev/aws-probe/internal/constants"
	"tasnim.dev/aws-probe/internal/logger"
	"tasnim.dev/aws-probe/internal/utils"
)

// ObjectKey builds the remote key for a test object:
// <prefix>test-<YYYYMMDD-HHMMSS>-<8 hex>.txt
func ObjectKey(prefix string, now time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%stest-%s-%s.txt", prefix, now.UTC().Format(utils.KeyStamp), id.String()[:8])
}

// checkRoundTrip uploads a small file, verifies it with HeadObject,
// downloads it back and compares bytes. The remote object and the
// downloaded copy are left in place for inspection; only the local
// original is removed.
func (r *Runner) checkRoundTrip(ctx context.Context, credsOK bool) Result {
	switch {
	case r.opts.SkipRoundTrip:
		return r.skipped(StepRoundTrip, "Object round-trip", "disabled")
	case !credsOK:
		return r.skipped(StepRoundTrip, "Object round-trip", "credential check failed")
	}

	r.nextStep("Object round-trip")
	if r.opts.Bucket == "" {
		r.out.Warn("No bucket configured; set --bucket or AWS_PROBE_BUCKET to run the round-trip")
		return Result{Name: StepRoundTrip, Status: StatusWarn}
	}

	dl, err := ResolveDownloadDir(r.opts.MountPath, r.opts.TempDir)
	if err != nil {
		return r.hardFailure(StepRoundTrip, "Preparing download directory failed", err)
	}
	for _, w := range dl.Warnings {
		r.out.Warn("%s", w)
	}
	if dl.Persistent {
		r.out.OK("Host mount writable; downloads go to %s", dl.Path)
	}

	local, err := writeTestFile(r.opts.TempDir)
	if err != nil {
		return r.hardFailure(StepRoundTrip, "Creating local test file failed", err)
	}
	// Removed explicitly on success; this covers the early returns.
	defer os.Remove(local)
	r.out.OK("Created local test file %s", local)

	bucket := r.opts.Bucket
	key := ObjectKey(r.opts.KeyPrefix, r.now(), r.newID())
	uri := fmt.Sprintf("s3://%s/%s", bucket, key)

	up, err := r.clients.S3.UploadFile(ctx, bucket, key, local, r.opts.SSE)
	if err != nil {
		return r.hardFailure(StepRoundTrip, "Upload failed", err)
	}
	r.out.OK("Uploaded %s to %s (SSE: %s)", utils.Bytes(up.Size), uri, utils.OrDash(string(r.opts.SSE)))

	info, err := r.clients.S3.HeadObject(ctx, bucket, key)
	if err != nil {
		return r.hardFailure(StepRoundTrip, "Object not found after upload", err)
	}
	r.out.OK("Object exists")
	d := r.out.Details()
	d.Row("Size", utils.Bytes(info.Size))
	d.Row("ETag", utils.OrDash(info.ETag))
	d.Row("SSE", utils.OrDash(info.ServerSideEncryption))
	d.Row("Modified", utils.TimeOrDash(info.LastModified, utils.DateTimeSec))
	r.out.Write(d)

	dest := filepath.Join(dl.Path, path.Base(key))
	n, err := r.clients.S3.DownloadFile(ctx, bucket, key, dest)
	if err != nil {
		return r.hardFailure(StepRoundTrip, "Download failed", err)
	}
	r.out.OK("Downloaded %s to %s", utils.Bytes(n), dest)

	res := Result{Name: StepRoundTrip, Status: StatusPass}
	if err := compareFiles(local, dest); err != nil {
		r.out.Fail("Content mismatch: %v", err)
		logger.Log.Error().Err(err).Str("local", local).Str("downloaded", dest).Msg("round-trip mismatch")
		res.Status, res.Err = StatusFail, err
	} else {
		r.out.OK("Content matches the original")
	}

	if err := os.Remove(local); err != nil {
		r.out.Warn("Could not remove local original %s: %v", local, err)
	} else {
		r.out.OK("Removed local original")
	}

	kept := r.out.Details()
	kept.List("Kept for inspection:", []string{uri, dest})
	r.out.Write(kept)
	return res
}

func writeTestFile(dir string) (string, error) {
	f, err := os.CreateTemp(dir, constants.AppName+"-*.txt")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.WriteString(constants.TestObjectContent); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

func compareFiles(original, downloaded string) error {
	want, err := os.ReadFile(original)
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}
	got, err := os.ReadFile(downloaded)
	if err != nil {
		return fmt.Errorf("read download: %w", err)
	}
	if !bytes.Equal(want, got) {
		return fmt.Errorf("original is %d bytes, download is %d bytes and differs", len(want), len(got))
	}
	return nil
}
