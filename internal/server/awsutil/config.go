// Package awsutil loads AWS configuration for the DynamoDB store and the
// receipt archive.
package awsutil

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
)

// Load loads the AWS configuration. A non-empty endpoint (e.g. LocalStack)
// overrides the default service endpoints.
func Load(ctx context.Context, region, endpoint string) (aws.Config, error) {
	cfg, err := awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region))
	if err != nil {
		return aws.Config{}, err
	}
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}
	return cfg, nil
}
