package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/spf13/cobra"

	awsclient "tasnim.dev/aws-probe/internal/aws"
	awss3 "tasnim.dev/aws-probe/internal/aws/s3"
	"tasnim.dev/aws-probe/internal/config"
	"tasnim.dev/aws-probe/internal/constants"
	"tasnim.dev/aws-probe/internal/logger"
	"tasnim.dev/aws-probe/internal/probe"
)

// probeFlags are shared by every probe subcommand. Only the flags a
// command registers are consulted.
type probeFlags struct {
	profile          string
	region           string
	bucket           string
	keyPrefix        string
	sse              string
	mountPath        string
	metadataEndpoint string
	metadataTimeout  time.Duration
	timeout          time.Duration
	logLevel         string
	skipRoundTrip    bool
	skipMetadata     bool
	instanceProfile  bool
	strict           bool
}

func (f *probeFlags) addCommon(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.metadataEndpoint, "metadata-endpoint", "", "Instance metadata endpoint (default "+constants.DefaultMetadataEndpoint+")")
	cmd.Flags().DurationVar(&f.metadataTimeout, "metadata-timeout", constants.DefaultMetadataTimeout, "Per-request metadata timeout")
	cmd.Flags().DurationVar(&f.timeout, "timeout", constants.DefaultRunTimeout, "Deadline for the whole run")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Exit non-zero when a check fails")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func (f *probeFlags) addCredentials(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "AWS profile to use")
	cmd.Flags().StringVarP(&f.region, "region", "r", "", "AWS region to use")
	cmd.Flags().BoolVar(&f.instanceProfile, "instance-profile", false, "Only use the EC2 instance profile for credentials")
}

func (f *probeFlags) addRoundTrip(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.bucket, "bucket", "b", "", "S3 bucket for the object round-trip")
	cmd.Flags().StringVar(&f.keyPrefix, "key-prefix", "", "Key prefix for the test object")
	cmd.Flags().StringVar(&f.sse, "sse", "", "Server-side encryption: AES256, aws:kms, aws:kms:dsse or none")
	cmd.Flags().StringVar(&f.mountPath, "mount-path", "", "Host directory to keep downloaded copies in")
}

// loadConfig layers flags over env over the config file.
func (f *probeFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnv()
	f.applyTo(cmd, cfg)

	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func (f *probeFlags) applyTo(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	cfg.DefaultProfile, cfg.DefaultRegion = cfg.Merge(f.profile, f.region)
	if f.bucket != "" {
		cfg.Bucket = f.bucket
	}
	if f.keyPrefix != "" {
		cfg.KeyPrefix = f.keyPrefix
	}
	if f.sse != "" {
		cfg.ServerSideEncryption = f.sse
	}
	// An explicit empty --mount-path turns the mount off.
	if changed("mount-path") {
		cfg.MountPath = f.mountPath
	}
	if f.metadataEndpoint != "" {
		cfg.MetadataEndpoint = f.metadataEndpoint
	}
	if changed("metadata-timeout") && f.metadataTimeout > 0 {
		cfg.MetadataTimeoutSecs = int(f.metadataTimeout.Round(time.Second) / time.Second)
		if cfg.MetadataTimeoutSecs == 0 {
			cfg.MetadataTimeoutSecs = 1
		}
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
}

func (f *probeFlags) options(cfg *config.Config) (probe.Options, error) {
	sse, err := awss3.ParseSSE(cfg.SSE())
	if err != nil {
		return probe.Options{}, err
	}
	return probe.Options{
		Bucket:        cfg.Bucket,
		KeyPrefix:     cfg.KeyPrefix,
		SSE:           sse,
		MountPath:     cfg.MountPath,
		SkipMetadata:  f.skipMetadata,
		SkipRoundTrip: f.skipRoundTrip,
		Region:        cfg.DefaultRegion,
		Hostname:      hostname(),
	}, nil
}

// newRunner resolves config, builds the AWS clients and returns a runner
// writing to the command's stdout.
func (f *probeFlags) newRunner(ctx context.Context, cmd *cobra.Command) (*probe.Runner, error) {
	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := f.options(cfg)
	if err != nil {
		return nil, err
	}

	client, err := awsclient.NewServiceClient(ctx, awsclient.SessionOptions{
		Profile:          cfg.DefaultProfile,
		Region:           cfg.DefaultRegion,
		InstanceProfile:  f.instanceProfile,
		MetadataEndpoint: cfg.MetadataEndpoint,
	}, cfg.MetadataTimeout())
	if err != nil {
		return nil, fmt.Errorf("initializing AWS client: %w", err)
	}
	if opts.Region == "" {
		opts.Region = client.Config.Region
	}

	logger.Log.Debug().
		Str("profile", cfg.DefaultProfile).
		Str("region", opts.Region).
		Str("bucket", opts.Bucket).
		Str("sse", sseFlagValue(opts.SSE)).
		Str("metadata_endpoint", client.Metadata.Endpoint()).
		Msg("probe configured")

	clients := probe.Clients{
		S3:       client.S3,
		STS:      client.STS,
		Metadata: client.Metadata,
		IAM:      client.IAM,
		CredentialSource: func(ctx context.Context) (string, error) {
			return awsclient.CredentialSource(ctx, client.Config)
		},
	}
	return probe.NewRunner(clients, opts, cmd.OutOrStdout()), nil
}

// finish turns a failed summary into an error under --strict.
func (f *probeFlags) finish(s probe.Summary) error {
	if f.strict && !s.OK() {
		return fmt.Errorf("checks failed: %v", s.Failed())
	}
	return nil
}

func (f *probeFlags) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if f.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.timeout)
}

func hostname() string {
	if h := os.Getenv("HOSTNAME"); h != "" {
		return h
	}
	h, _ := os.Hostname()
	return h
}

// sseFlagValue reports the parsed encryption for log output.
func sseFlagValue(sse s3types.ServerSideEncryption) string {
	if sse == "" {
		return constants.SSENone
	}
	return string(sse)
}
