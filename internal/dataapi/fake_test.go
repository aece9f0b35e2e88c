package dataapi

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
)

// fakeClient records every ExecuteStatement call and answers with respond.
type fakeClient struct {
	mu      sync.Mutex
	calls   []*rdsdata.ExecuteStatementInput
	respond func(in *rdsdata.ExecuteStatementInput) (*rdsdata.ExecuteStatementOutput, error)
}

func (f *fakeClient) ExecuteStatement(_ context.Context, in *rdsdata.ExecuteStatementInput, _ ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()
	if f.respond == nil {
		return &rdsdata.ExecuteStatementOutput{}, nil
	}
	return f.respond(in)
}

func (f *fakeClient) Calls() []*rdsdata.ExecuteStatementInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*rdsdata.ExecuteStatementInput(nil), f.calls...)
}

func factoryFor(c *fakeClient) ClientFactory {
	return func(aws.Config) Client { return c }
}

func failWith(err error) func(*rdsdata.ExecuteStatementInput) (*rdsdata.ExecuteStatementOutput, error) {
	return func(*rdsdata.ExecuteStatementInput) (*rdsdata.ExecuteStatementOutput, error) {
		return nil, err
	}
}
