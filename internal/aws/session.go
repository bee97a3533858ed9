package aws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	pkgerrors "github.com/pkg/errors"

	"tasnim.dev/aws-probe/internal/constants"
	"tasnim.dev/aws-probe/internal/logger"
)

// SessionOptions selects how the credential chain is resolved.
type SessionOptions struct {
	Profile string
	Region  string
	// InstanceProfile restricts credentials to the EC2 role provider,
	// skipping env vars and shared files.
	InstanceProfile bool
	// MetadataEndpoint overrides the IMDS endpoint used by the SDK.
	MetadataEndpoint string
	// MetadataTimeout bounds the IMDS region lookup. Zero uses the default.
	MetadataTimeout time.Duration
}

// LoadConfig loads an AWS config with optional profile and region overrides.
// If no region is configured anywhere, the region is taken from IMDS in a
// single attempt. When that lookup fails the config is loaded without a
// region, so S3 and STS report the problem when they are called.
func LoadConfig(ctx context.Context, opts SessionOptions) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.MetadataEndpoint != "" {
		loadOpts = append(loadOpts, config.WithEC2IMDSEndpoint(opts.MetadataEndpoint))
	}

	regionLookup := config.WithEC2IMDSRegion(func(o *config.UseEC2IMDSRegion) {
		o.Client = regionClient(opts)
	})
	cfg, err := config.LoadDefaultConfig(ctx, append(loadOpts, regionLookup)...)
	if err != nil {
		regionErr := err
		cfg, err = config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
		}
		logger.Log.Warn().Err(regionErr).Msg("no region configured and instance metadata did not provide one")
	}

	if opts.InstanceProfile {
		cfg.Credentials = aws.NewCredentialsCache(ec2rolecreds.New(func(o *ec2rolecreds.Options) {
			if opts.MetadataEndpoint != "" {
				o.Client = imds.New(imds.Options{Endpoint: opts.MetadataEndpoint})
			}
		}))
	}
	return cfg, nil
}

// regionClient is the IMDS client used only for region discovery: one
// attempt, bounded by the metadata timeout.
func regionClient(opts SessionOptions) *imds.Client {
	endpoint := opts.MetadataEndpoint
	if endpoint == "" {
		endpoint = constants.DefaultMetadataEndpoint
	}
	timeout := opts.MetadataTimeout
	if timeout <= 0 {
		timeout = constants.DefaultMetadataTimeout
	}
	return imds.New(imds.Options{
		Endpoint:   endpoint,
		Retryer:    aws.NopRetryer{},
		HTTPClient: &http.Client{Timeout: timeout},
	})
}

// CredentialSource resolves the credential chain once and returns the name
// of the provider that supplied it (e.g. "EC2RoleProvider").
func CredentialSource(ctx context.Context, cfg aws.Config) (string, error) {
	if cfg.Credentials == nil {
		return "", pkgerrors.New("no credential provider configured")
	}
	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return "", pkgerrors.Wrap(err, "retrieving credentials")
	}
	return creds.Source, nil
}
