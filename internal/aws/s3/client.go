package s3

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	pkgerrors "github.com/pkg/errors"

	"tasnim.dev/aws-probe/internal/constants"
	"tasnim.dev/aws-probe/internal/logger"
)

// S3API is the subset of the S3 client the probe uses. Uploads and
// downloads go through the transfer manager, so its client interfaces are
// embedded.
type S3API interface {
	manager.UploadAPIClient
	manager.DownloadAPIClient
	ListBuckets(ctx context.Context, params *awss3.ListBucketsInput, optFns ...func(*awss3.Options)) (*awss3.ListBucketsOutput, error)
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
}

type Client struct {
	api        S3API
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

func NewClient(api S3API) *Client {
	return &Client{
		api: api,
		uploader: manager.NewUploader(api, func(u *manager.Uploader) {
			u.Concurrency = 1
		}),
		downloader: manager.NewDownloader(api, func(d *manager.Downloader) {
			d.Concurrency = 1
		}),
	}
}

// ParseSSE validates a server-side encryption setting. "" and "none" mean
// no encryption header is sent.
func ParseSSE(v string) (s3types.ServerSideEncryption, error) {
	if v == "" || strings.EqualFold(v, constants.SSENone) {
		return "", nil
	}
	sse := s3types.ServerSideEncryption(v)
	if !slices.Contains(sse.Values(), sse) {
		return "", fmt.Errorf("unsupported server-side encryption %q (want one of %v or %q)", v, sse.Values(), constants.SSENone)
	}
	return sse, nil
}

// ListBucketNames returns the names of all buckets visible to the caller.
func (c *Client) ListBucketNames(ctx context.Context) ([]string, error) {
	out, err := c.api.ListBuckets(ctx, &awss3.ListBucketsInput{})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "ListBuckets")
	}

	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	logger.Log.Debug().Int("count", len(names)).Msg("ListBuckets")
	return names, nil
}

// UploadFile uploads the local file at path to bucket/key.
func (c *Client) UploadFile(ctx context.Context, bucket, key, path string, sse s3types.ServerSideEncryption) (UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat %s: %w", path, err)
	}

	input := &awss3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/plain"),
	}
	if sse != "" {
		input.ServerSideEncryption = sse
	}

	out, err := c.uploader.Upload(ctx, input)
	if err != nil {
		return UploadResult{}, pkgerrors.Wrapf(err, "PutObject(%s/%s)", bucket, key)
	}
	logger.Log.Debug().Str("bucket", bucket).Str("key", key).Int64("size", st.Size()).Msg("uploaded")

	return UploadResult{
		Location: out.Location,
		ETag:     aws.ToString(out.ETag),
		Size:     st.Size(),
	}, nil
}

// HeadObject fetches object metadata without the body.
func (c *Client) HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	out, err := c.api.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectInfo{}, pkgerrors.Wrapf(err, "HeadObject(%s/%s)", bucket, key)
	}

	var lastModified time.Time
	if out.LastModified != nil {
		lastModified = *out.LastModified
	}
	return ObjectInfo{
		Bucket:               bucket,
		Key:                  key,
		Size:                 aws.ToInt64(out.ContentLength),
		ETag:                 aws.ToString(out.ETag),
		ServerSideEncryption: string(out.ServerSideEncryption),
		LastModified:         lastModified,
	}, nil
}

// DownloadFile downloads bucket/key into dest, replacing any existing file.
// A partially written file is removed on error.
func (c *Client) DownloadFile(ctx context.Context, bucket, key, dest string) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	n, err := c.downloader.Download(ctx, f, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	closeErr := f.Close()
	if err != nil {
		os.Remove(dest)
		return 0, pkgerrors.Wrapf(err, "GetObject(%s/%s)", bucket, key)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("close %s: %w", dest, closeErr)
	}
	logger.Log.Debug().Str("bucket", bucket).Str("key", key).Int64("size", n).Str("dest", dest).Msg("downloaded")
	return n, nil
}
