package dataapi

import "github.com/aws/aws-sdk-go-v2/aws"

// DialectOptions are the Data API parameters every statement is sent with.
type DialectOptions struct {
	// AWSConfig is handed to the ClientFactory to build the transport client.
	AWSConfig aws.Config
	// SecretStoreArn is the Secrets Manager ARN holding the database credentials.
	SecretStoreArn string
	// ResourceArn is the Aurora cluster or instance ARN.
	ResourceArn string
	Database    string
	Schema      string
}

// Config is what the pooling layer passes to Connect. Treat it as immutable
// once handed over.
type Config struct {
	// Port is informational for the Data API; it defaults to the dialect port.
	Port           int
	DialectOptions DialectOptions
}
