package dataapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
)

// Client is the single Data API operation the adapter relies on.
// *rdsdata.Client satisfies it.
type Client interface {
	ExecuteStatement(ctx context.Context, in *rdsdata.ExecuteStatementInput, optFns ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error)
}

// ClientFactory builds a transport client from the connection's AWS config.
type ClientFactory func(cfg aws.Config) Client

// NewRDSDataClient is the default ClientFactory.
func NewRDSDataClient(cfg aws.Config) Client {
	return rdsdata.NewFromConfig(cfg)
}

var _ Client = (*rdsdata.Client)(nil)
