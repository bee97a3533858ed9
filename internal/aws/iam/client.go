package iam

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
	pkgerrors "github.com/pkg/errors"

	"tasnim.dev/aws-probe/internal/logger"
)

type IAMAPI interface {
	ListAttachedRolePolicies(ctx context.Context, params *awsiam.ListAttachedRolePoliciesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListAttachedRolePoliciesOutput, error)
	ListRolePolicies(ctx context.Context, params *awsiam.ListRolePoliciesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListRolePoliciesOutput, error)
}

type Client struct {
	api IAMAPI
}

func NewClient(api IAMAPI) *Client {
	return &Client{api: api}
}

// RolePolicies returns the managed policies attached to roleName followed
// by its inline policies.
func (c *Client) RolePolicies(ctx context.Context, roleName string) ([]RolePolicy, error) {
	attached, err := c.attachedRolePolicies(ctx, roleName)
	if err != nil {
		return nil, err
	}
	inline, err := c.inlineRolePolicies(ctx, roleName)
	if err != nil {
		return nil, err
	}
	logger.Log.Debug().Str("role", roleName).Int("attached", len(attached)).Int("inline", len(inline)).Msg("listed role policies")
	return append(attached, inline...), nil
}

func (c *Client) attachedRolePolicies(ctx context.Context, roleName string) ([]RolePolicy, error) {
	var policies []RolePolicy
	var marker *string

	for {
		out, err := c.api.ListAttachedRolePolicies(ctx, &awsiam.ListAttachedRolePoliciesInput{
			RoleName: aws.String(roleName),
			Marker:   marker,
		})
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "ListAttachedRolePolicies(%s)", roleName)
		}

		for _, p := range out.AttachedPolicies {
			policies = append(policies, RolePolicy{
				Name: aws.ToString(p.PolicyName),
				ARN:  aws.ToString(p.PolicyArn),
			})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return policies, nil
}

func (c *Client) inlineRolePolicies(ctx context.Context, roleName string) ([]RolePolicy, error) {
	var policies []RolePolicy
	var marker *string

	for {
		out, err := c.api.ListRolePolicies(ctx, &awsiam.ListRolePoliciesInput{
			RoleName: aws.String(roleName),
			Marker:   marker,
		})
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "ListRolePolicies(%s)", roleName)
		}

		for _, name := range out.PolicyNames {
			policies = append(policies, RolePolicy{Name: name, Inline: true})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return policies, nil
}
