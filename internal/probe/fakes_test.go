package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	awsiamsdk "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	awss3sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	awsstssdk "github.com/aws/aws-sdk-go-v2/service/sts"
)

// fakeS3 is an in-memory bucket store implementing awss3.S3API.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]map[string][]byte
	sse      map[string]s3types.ServerSideEncryption
	listErr  error
	corrupt  bool
	getCalls int
}

func newFakeS3(buckets ...string) *fakeS3 {
	f := &fakeS3{
		objects: map[string]map[string][]byte{},
		sse:     map[string]s3types.ServerSideEncryption{},
	}
	for _, b := range buckets {
		f.objects[b] = map[string][]byte{}
	}
	return f
}

func (f *fakeS3) object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[bucket]
	if !ok {
		return nil, false
	}
	data, ok := b[key]
	return data, ok
}

func (f *fakeS3) ListBuckets(ctx context.Context, params *awss3sdk.ListBucketsInput, optFns ...func(*awss3sdk.Options)) (*awss3sdk.ListBucketsOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &awss3sdk.ListBucketsOutput{}
	for _, name := range slices.Sorted(maps.Keys(f.objects)) {
		out.Buckets = append(out.Buckets, s3types.Bucket{Name: awssdk.String(name)})
	}
	return out, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *awss3sdk.PutObjectInput, optFns ...func(*awss3sdk.Options)) (*awss3sdk.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	bucket := awssdk.ToString(params.Bucket)
	b, ok := f.objects[bucket]
	if !ok {
		return nil, &s3types.NoSuchBucket{Message: awssdk.String("The specified bucket does not exist")}
	}
	key := awssdk.ToString(params.Key)
	b[key] = data
	f.sse[bucket+"/"+key] = params.ServerSideEncryption
	return &awss3sdk.PutObjectOutput{ETag: awssdk.String(`"fake-etag"`)}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *awss3sdk.HeadObjectInput, optFns ...func(*awss3sdk.Options)) (*awss3sdk.HeadObjectOutput, error) {
	bucket, key := awssdk.ToString(params.Bucket), awssdk.ToString(params.Key)
	data, ok := f.object(bucket, key)
	if !ok {
		return nil, &s3types.NotFound{}
	}
	lastMod := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	return &awss3sdk.HeadObjectOutput{
		ContentLength:        awssdk.Int64(int64(len(data))),
		ETag:                 awssdk.String(`"fake-etag"`),
		ServerSideEncryption: f.sse[bucket+"/"+key],
		LastModified:         &lastMod,
	}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *awss3sdk.GetObjectInput, optFns ...func(*awss3sdk.Options)) (*awss3sdk.GetObjectOutput, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()

	data, ok := f.object(awssdk.ToString(params.Bucket), awssdk.ToString(params.Key))
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	if f.corrupt {
		data = append([]byte("tampered "), data...)
	}

	start, end := int64(0), int64(len(data))-1
	if r := awssdk.ToString(params.Range); r != "" {
		fmt.Sscanf(r, "bytes=%d-%d", &start, &end)
		if end >= int64(len(data)) {
			end = int64(len(data)) - 1
		}
	}
	body := data[start : end+1]
	return &awss3sdk.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: awssdk.Int64(int64(len(body))),
		ContentRange:  awssdk.String(fmt.Sprintf("bytes %d-%d/%d", start, end, len(data))),
	}, nil
}

func (f *fakeS3) UploadPart(ctx context.Context, params *awss3sdk.UploadPartInput, optFns ...func(*awss3sdk.Options)) (*awss3sdk.UploadPartOutput, error) {
	return nil, fmt.Errorf("multipart upload not supported by fake")
}

func (f *fakeS3) CreateMultipartUpload(ctx context.Context, params *awss3sdk.CreateMultipartUploadInput, optFns ...func(*awss3sdk.Options)) (*awss3sdk.CreateMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart upload not supported by fake")
}

func (f *fakeS3) CompleteMultipartUpload(ctx context.Context, params *awss3sdk.CompleteMultipartUploadInput, optFns ...func(*awss3sdk.Options)) (*awss3sdk.CompleteMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart upload not supported by fake")
}

func (f *fakeS3) AbortMultipartUpload(ctx context.Context, params *awss3sdk.AbortMultipartUploadInput, optFns ...func(*awss3sdk.Options)) (*awss3sdk.AbortMultipartUploadOutput, error) {
	return &awss3sdk.AbortMultipartUploadOutput{}, nil
}

type mockSTSAPI struct {
	getCallerIdentityFunc func(ctx context.Context, params *awsstssdk.GetCallerIdentityInput, optFns ...func(*awsstssdk.Options)) (*awsstssdk.GetCallerIdentityOutput, error)
}

func (m *mockSTSAPI) GetCallerIdentity(ctx context.Context, params *awsstssdk.GetCallerIdentityInput, optFns ...func(*awsstssdk.Options)) (*awsstssdk.GetCallerIdentityOutput, error) {
	return m.getCallerIdentityFunc(ctx, params, optFns...)
}

func okSTS() *mockSTSAPI {
	return &mockSTSAPI{
		getCallerIdentityFunc: func(ctx context.Context, params *awsstssdk.GetCallerIdentityInput, optFns ...func(*awsstssdk.Options)) (*awsstssdk.GetCallerIdentityOutput, error) {
			return &awsstssdk.GetCallerIdentityOutput{
				Account: awssdk.String("123456789012"),
				Arn:     awssdk.String("arn:aws-cn:sts::123456789012:assumed-role/my-role/i-0abc"),
				UserId:  awssdk.String("AROAEXAMPLE:i-0abc"),
			}, nil
		},
	}
}

type mockIdentityDocumentAPI struct {
	err error
}

func (m *mockIdentityDocumentAPI) GetInstanceIdentityDocument(ctx context.Context, params *imds.GetInstanceIdentityDocumentInput, optFns ...func(*imds.Options)) (*imds.GetInstanceIdentityDocumentOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &imds.GetInstanceIdentityDocumentOutput{
		InstanceIdentityDocument: imds.InstanceIdentityDocument{
			InstanceID:       "i-0abc",
			InstanceType:     "t3.small",
			Region:           "cn-north-1",
			AvailabilityZone: "cn-north-1a",
			AccountID:        "123456789012",
			ImageID:          "ami-0feed",
		},
	}, nil
}

// fakeIMDS serves IMDSv2 token and role lookups.
func fakeIMDS(t *testing.T, token, role string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/latest/api/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, token)
	})
	mux.HandleFunc("/latest/meta-data/iam/security-credentials/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-aws-ec2-metadata-token") != token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintln(w, role)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// statusIMDS answers every request with status.
func statusIMDS(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// deadEndpoint returns a URL nothing listens on.
func deadEndpoint() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

type mockIAMAPI struct {
	attached []iamtypes.AttachedPolicy
	inline   []string
	err      error
}

func (m *mockIAMAPI) ListAttachedRolePolicies(ctx context.Context, params *awsiamsdk.ListAttachedRolePoliciesInput, optFns ...func(*awsiamsdk.Options)) (*awsiamsdk.ListAttachedRolePoliciesOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &awsiamsdk.ListAttachedRolePoliciesOutput{AttachedPolicies: m.attached}, nil
}

func (m *mockIAMAPI) ListRolePolicies(ctx context.Context, params *awsiamsdk.ListRolePoliciesInput, optFns ...func(*awsiamsdk.Options)) (*awsiamsdk.ListRolePoliciesOutput, error) {
	return &awsiamsdk.ListRolePoliciesOutput{PolicyNames: m.inline}, nil
}
