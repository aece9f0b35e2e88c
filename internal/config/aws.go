package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// LoadAWS resolves credentials through the default provider chain and applies
// the region and optional Data API endpoint override.
func (c *Config) LoadAWS(ctx context.Context) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	if c.DataAPIEndpoint != "" {
		awsCfg.BaseEndpoint = aws.String(c.DataAPIEndpoint)
	}
	return awsCfg, nil
}
