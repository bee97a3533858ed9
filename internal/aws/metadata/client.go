// Package metadata talks to the EC2 instance metadata service (IMDSv2).
//
// The token and role lookups use plain HTTP so the probe can report the
// exact status code of each request; the SDK client hides them behind its
// own retry and fallback logic. The identity document goes through the SDK.
package metadata

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"

	"tasnim.dev/aws-probe/internal/constants"
	"tasnim.dev/aws-probe/internal/logger"
)

const (
	tokenPath = "/latest/api/token"
	rolePath  = "/latest/meta-data/iam/security-credentials/"

	tokenTTLHeader = "X-aws-ec2-metadata-token-ttl-seconds"
	tokenHeader    = "X-aws-ec2-metadata-token"

	// maxBody caps how much of a metadata response is read.
	maxBody = 64 * 1024
)

type IdentityDocumentAPI interface {
	GetInstanceIdentityDocument(ctx context.Context, params *imds.GetInstanceIdentityDocumentInput, optFns ...func(*imds.Options)) (*imds.GetInstanceIdentityDocumentOutput, error)
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	doc        IdentityDocumentAPI
}

// NewClient returns a client for the metadata service at endpoint. Every
// request is bounded by timeout and attempted once.
func NewClient(endpoint string, timeout time.Duration) *Client {
	doc := imds.New(imds.Options{
		Endpoint: endpoint,
		Retryer:  aws.NopRetryer{},
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	})
	return NewClientWithAPI(endpoint, timeout, doc)
}

// NewClientWithAPI is NewClient with an injectable identity document source.
func NewClientWithAPI(endpoint string, timeout time.Duration, doc IdentityDocumentAPI) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
		doc:        doc,
	}
}

// Endpoint returns the base URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Token requests an IMDSv2 session token.
func (c *Client) Token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint+tokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set(tokenTTLHeader, strconv.Itoa(constants.MetadataTokenTTLSeconds))

	body, err := c.do(req, "token")
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(body)
	logger.Log.Debug().Int("token_len", len(token)).Msg("metadata token acquired")
	return token, nil
}

// RoleName returns the IAM role attached to the instance profile. The
// listing can hold several lines; the first non-empty one is returned.
func (c *Client) RoleName(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+rolePath, nil)
	if err != nil {
		return "", fmt.Errorf("creating role request: %w", err)
	}
	req.Header.Set(tokenHeader, token)

	body, err := c.do(req, "role")
	if err != nil {
		return "", err
	}

	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			logger.Log.Debug().Str("role", name).Msg("metadata role resolved")
			return name, nil
		}
	}
	return "", fmt.Errorf("role: no IAM role attached to this instance")
}

// IdentityDocument fetches the instance identity document through the SDK
// client, which negotiates its own token.
func (c *Client) IdentityDocument(ctx context.Context) (InstanceIdentity, error) {
	out, err := c.doc.GetInstanceIdentityDocument(ctx, &imds.GetInstanceIdentityDocumentInput{})
	if err != nil {
		return InstanceIdentity{}, fmt.Errorf("GetInstanceIdentityDocument: %w", err)
	}
	return InstanceIdentity{
		InstanceID:       out.InstanceID,
		InstanceType:     out.InstanceType,
		Region:           out.Region,
		AvailabilityZone: out.AvailabilityZone,
		AccountID:        out.AccountID,
		ImageID:          out.ImageID,
	}, nil
}

func (c *Client) do(req *http.Request, op string) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	logger.Log.Debug().Str("op", op).Str("url", req.URL.String()).Int("status", resp.StatusCode).Msg("metadata request")
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return "", &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("%s: reading response: %w", op, err)
	}
	return string(b), nil
}
