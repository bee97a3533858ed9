package aws

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiamsdk "github.com/aws/aws-sdk-go-v2/service/iam"
	awss3sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	awsstssdk "github.com/aws/aws-sdk-go-v2/service/sts"

	awsiam "tasnim.dev/aws-probe/internal/aws/iam"
	awsmetadata "tasnim.dev/aws-probe/internal/aws/metadata"
	awss3 "tasnim.dev/aws-probe/internal/aws/s3"
	awssts "tasnim.dev/aws-probe/internal/aws/sts"
	"tasnim.dev/aws-probe/internal/constants"
)

// ServiceClient bundles the wrappers the probe drives.
type ServiceClient struct {
	Config   aws.Config
	S3       *awss3.Client
	STS      *awssts.Client
	IAM      *awsiam.Client
	Metadata *awsmetadata.Client
}

func NewServiceClient(ctx context.Context, opts SessionOptions, metadataTimeout time.Duration) (*ServiceClient, error) {
	if opts.MetadataTimeout == 0 {
		opts.MetadataTimeout = metadataTimeout
	}
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}

	endpoint := opts.MetadataEndpoint
	if endpoint == "" {
		endpoint = constants.DefaultMetadataEndpoint
	}

	return &ServiceClient{
		Config:   cfg,
		S3:       awss3.NewClient(awss3sdk.NewFromConfig(cfg)),
		STS:      awssts.NewClient(awsstssdk.NewFromConfig(cfg)),
		IAM:      awsiam.NewClient(awsiamsdk.NewFromConfig(cfg)),
		Metadata: awsmetadata.NewClient(endpoint, metadataTimeout),
	}, nil
}
