package maintenance

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"tierquery/internal/config"
)

// LayoutVerifier checks, after a repartition, that the table's backing
// objects actually exist in object storage. Verification is advisory:
// failures are logged by the orchestrator, never surfaced to callers.
type LayoutVerifier struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewLayoutVerifier creates a verifier against S3-compatible object storage,
// configured with path-style addressing.
func NewLayoutVerifier(cfg *config.Config) (*LayoutVerifier, error) {
	if !cfg.HasS3Config() {
		return nil, fmt.Errorf("S3 config is incomplete")
	}

	endpoint := fmt.Sprintf("https://%s", *cfg.S3Endpoint)

	client := s3.New(s3.Options{
		Region: *cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*cfg.S3KeyID, *cfg.S3Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})

	bucket := "tierquery"
	if cfg.S3Bucket != nil {
		bucket = *cfg.S3Bucket
	}

	return &LayoutVerifier{client: client, bucket: bucket, prefix: "cold/"}, nil
}

// Verify lists the objects under the table's storage prefix and fails when
// none exist.
func (v *LayoutVerifier) Verify(ctx context.Context, table string) error {
	prefix := v.prefix + strings.ToLower(table) + "/"

	out, err := v.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(v.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("list objects under %q/%q: %w", v.bucket, prefix, err)
	}
	if out.KeyCount == nil || *out.KeyCount == 0 {
		return fmt.Errorf("no objects found under %q/%q after rewrite", v.bucket, prefix)
	}
	return nil
}
