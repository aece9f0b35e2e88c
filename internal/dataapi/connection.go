package dataapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

// Request is one SQL statement sent through a Connection.
type Request struct {
	SQL        string
	Parameters []types.SqlParameter
	// IncludeResultMetadata asks the service for column metadata, which
	// Decode needs to apply type parsers.
	IncludeResultMetadata bool
}

// Connection is a stateless handle bound to fixed DialectOptions. It holds no
// socket; every call is an independent ExecuteStatement request, so the value
// is safe for concurrent use and closing it is a no-op.
type Connection struct {
	client Client
	opts   DialectOptions
}

func newConnection(client Client, opts DialectOptions) *Connection {
	return &Connection{client: client, opts: opts}
}

// Options returns the dialect options this connection was built with.
func (c *Connection) Options() DialectOptions {
	return c.opts
}

// Query runs req and relays the service result or error unchanged.
func (c *Connection) Query(ctx context.Context, req Request) (*rdsdata.ExecuteStatementOutput, error) {
	return c.client.ExecuteStatement(ctx, c.input(req))
}

// Execute is identical to Query.
func (c *Connection) Execute(ctx context.Context, req Request) (*rdsdata.ExecuteStatementOutput, error) {
	return c.Query(ctx, req)
}

func (c *Connection) input(req Request) *rdsdata.ExecuteStatementInput {
	return &rdsdata.ExecuteStatementInput{
		Sql:                   aws.String(req.SQL),
		SecretArn:             aws.String(c.opts.SecretStoreArn),
		ResourceArn:           aws.String(c.opts.ResourceArn),
		Database:              optional(c.opts.Database),
		Schema:                optional(c.opts.Schema),
		Parameters:            req.Parameters,
		IncludeResultMetadata: req.IncludeResultMetadata,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
