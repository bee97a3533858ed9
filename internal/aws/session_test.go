package aws

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialSource_Static(t *testing.T) {
	cfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
	}

	src, err := CredentialSource(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, credentials.StaticCredentialsName, src)
}

func TestCredentialSource_NoProvider(t *testing.T) {
	_, err := CredentialSource(context.Background(), aws.Config{})
	assert.ErrorContains(t, err, "no credential provider")
}

func TestCredentialSource_RetrieveError(t *testing.T) {
	cfg := aws.Config{
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{}, fmt.Errorf("no EC2 IMDS role found")
		}),
	}

	_, err := CredentialSource(context.Background(), cfg)
	assert.ErrorContains(t, err, "retrieving credentials")
	assert.ErrorContains(t, err, "no EC2 IMDS role found")
}

func TestLoadConfig_ExplicitRegion(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")

	cfg, err := LoadConfig(context.Background(), SessionOptions{Region: "cn-north-1"})
	require.NoError(t, err)
	assert.Equal(t, "cn-north-1", cfg.Region)
}

func TestLoadConfig_InstanceProfile(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")

	cfg, err := LoadConfig(context.Background(), SessionOptions{
		Region:           "us-east-1",
		InstanceProfile:  true,
		MetadataEndpoint: "http://127.0.0.1:1",
	})
	require.NoError(t, err)

	// Env credentials must not leak through when the instance profile is forced.
	_, err = CredentialSource(context.Background(), cfg)
	assert.Error(t, err)
}

// noRegionEnv clears every source of a region so LoadConfig has to ask IMDS.
func noRegionEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_EC2_METADATA_SERVICE_ENDPOINT", "")
}

func TestLoadConfig_RegionFromConfiguredEndpoint(t *testing.T) {
	noRegionEnv(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/latest/api/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Aws-Ec2-Metadata-Token-Ttl-Seconds", "21600")
		fmt.Fprint(w, "token")
	})
	mux.HandleFunc("/latest/dynamic/instance-identity/document", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"region":"eu-west-3","instanceId":"i-0abc"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg, err := LoadConfig(context.Background(), SessionOptions{MetadataEndpoint: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-3", cfg.Region)
}

func TestLoadConfig_UnreachableMetadataIsNotFatal(t *testing.T) {
	noRegionEnv(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	start := time.Now()
	cfg, err := LoadConfig(context.Background(), SessionOptions{
		MetadataEndpoint: srv.URL,
		MetadataTimeout:  time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Region)
	assert.Positive(t, calls.Load(), "the region lookup uses the configured endpoint")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLoadConfig_DeadMetadataEndpoint(t *testing.T) {
	noRegionEnv(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg, err := LoadConfig(context.Background(), SessionOptions{MetadataEndpoint: url})
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Region)
}
