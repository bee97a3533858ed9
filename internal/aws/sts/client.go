package sts

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssts "github.com/aws/aws-sdk-go-v2/service/sts"
	pkgerrors "github.com/pkg/errors"

	"tasnim.dev/aws-probe/internal/logger"
)

type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *awssts.GetCallerIdentityInput, optFns ...func(*awssts.Options)) (*awssts.GetCallerIdentityOutput, error)
}

type Client struct {
	api STSAPI
}

func NewClient(api STSAPI) *Client {
	return &Client{api: api}
}

func (c *Client) CallerIdentity(ctx context.Context) (CallerIdentity, error) {
	out, err := c.api.GetCallerIdentity(ctx, &awssts.GetCallerIdentityInput{})
	if err != nil {
		return CallerIdentity{}, pkgerrors.Wrap(err, "GetCallerIdentity")
	}

	id := CallerIdentity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}
	logger.Log.Debug().Str("account", id.Account).Str("arn", id.ARN).Msg("GetCallerIdentity")
	return id, nil
}
