package origin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client defines the S3 operations used by S3Fetcher.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config contains configuration for S3-compatible origins.
type S3Config struct {
	Region         string `env:"ORIGIN_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"ORIGIN_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"ORIGIN_S3_SECRET_KEY"`
	Endpoint       string `env:"ORIGIN_S3_ENDPOINT"`         // Optional: for S3-compatible services
	ForcePathStyle bool   `env:"ORIGIN_S3_FORCE_PATH_STYLE"` // For S3-compatible services like MinIO
}

// S3Fetcher fetches objects from S3-compatible storage. Locators use the
// form s3://bucket/key. Range requests are forwarded through GetObject so
// partial reads never load the full object.
type S3Fetcher struct {
	client S3Client
}

// S3Option configures S3Fetcher construction.
type S3Option func(*s3Options)

type s3Options struct {
	client S3Client
}

// WithS3Client sets a pre-configured S3 client, useful for testing with mocks.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.client = client
	}
}

// NewS3Fetcher creates an S3 fetcher. Unless a client is injected via
// WithS3Client, the AWS configuration is loaded from the environment with
// the explicit settings in cfg layered on top.
func NewS3Fetcher(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Fetcher, error) {
	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.client != nil {
		return &S3Fetcher{client: options.client}, nil
	}

	awsOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		awsOptions = append(awsOptions,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretKey,
				"",
			)),
		)
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, fmt.Errorf("origin: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &S3Fetcher{client: client}, nil
}

// Fetch retrieves s3://bucket/key, forwarding rangeHeader to GetObject.
// S3 API errors carrying an HTTP status are translated into a Response with
// that status and the error code as body, so callers classify S3 failures
// exactly like HTTP origin failures.
func (f *S3Fetcher) Fetch(ctx context.Context, locator, rangeHeader string) (*Response, error) {
	bucket, key, err := parseS3Locator(locator)
	if err != nil {
		return nil, err
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if rangeHeader != "" {
		input.Range = aws.String(rangeHeader)
	}

	out, err := f.client.GetObject(ctx, input)
	if err != nil {
		if resp := s3ErrorResponse(err); resp != nil {
			return resp, nil
		}
		return nil, fmt.Errorf("origin: s3 fetch: %w", err)
	}

	status := http.StatusOK
	header := make(http.Header)
	if out.ContentType != nil {
		header.Set("Content-Type", aws.ToString(out.ContentType))
	}
	if out.ContentLength != nil {
		header.Set("Content-Length", strconv.FormatInt(aws.ToInt64(out.ContentLength), 10))
	}
	if out.ETag != nil {
		header.Set("ETag", aws.ToString(out.ETag))
	}
	if out.AcceptRanges != nil {
		header.Set("Accept-Ranges", aws.ToString(out.AcceptRanges))
	}
	if out.ContentRange != nil {
		header.Set("Content-Range", aws.ToString(out.ContentRange))
		status = http.StatusPartialContent
	}
	if out.LastModified != nil {
		header.Set("Last-Modified", out.LastModified.UTC().Format(time.RFC1123))
	}

	return &Response{
		StatusCode: status,
		Header:     header,
		Body:       out.Body,
	}, nil
}

// s3ErrorResponse maps an S3 API error to a synthetic origin Response.
// Returns nil for transport-level errors that carry no HTTP status.
func s3ErrorResponse(err error) *Response {
	var respErr interface {
		error
		HTTPStatusCode() int
	}
	if !errors.As(err, &respErr) {
		return nil
	}

	body := respErr.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		body = fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}

	return &Response{
		StatusCode: respErr.HTTPStatusCode(),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func parseS3Locator(locator string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(locator, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not an s3 locator", ErrInvalidLocator, locator)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q must be s3://bucket/key", ErrInvalidLocator, locator)
	}
	return bucket, key, nil
}
