package exporter

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata"

	"aurora-dataapi/internal/dataapi"
	"aurora-dataapi/internal/typecast"
)

// Querier runs one statement; *dataapi.Connection satisfies it.
type Querier interface {
	Query(ctx context.Context, req dataapi.Request) (*rdsdata.ExecuteStatementOutput, error)
}

// Decoder turns a raw result into typed rows; *dataapi.Manager satisfies it.
type Decoder interface {
	Decode(out *rdsdata.ExecuteStatementOutput, opts typecast.Options) (*dataapi.Rows, error)
}

// ExportResult contains stats about the export.
type ExportResult struct {
	RowsProcessed int64
	Duration      time.Duration
}

// Streamer executes statements and feeds decoded rows into an encoder.
type Streamer struct {
	conn    Querier
	decoder Decoder
	opts    typecast.Options
}

func NewStreamer(conn Querier, decoder Decoder, opts typecast.Options) *Streamer {
	return &Streamer{conn: conn, decoder: decoder, opts: opts}
}

// StreamStatement runs sql with result metadata, decodes it through the type
// parsers and writes header and rows to encoder. It flushes but does not
// close the encoder.
func (s *Streamer) StreamStatement(ctx context.Context, sql string, encoder RowEncoder) (*ExportResult, error) {
	start := time.Now()

	out, err := s.conn.Query(ctx, dataapi.Request{SQL: sql, IncludeResultMetadata: true})
	if err != nil {
		return nil, fmt.Errorf("statement execution failed: %w", err)
	}

	rows, err := s.decoder.Decode(out, s.opts)
	if err != nil {
		return nil, fmt.Errorf("result decoding failed: %w", err)
	}

	if err := encoder.WriteHeader(rows.Columns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	var rowCount int64
	for _, values := range rows.Values {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := encoder.WriteRow(values); err != nil {
			return nil, fmt.Errorf("row write failed: %w", err)
		}
		rowCount++
	}

	if err := encoder.Flush(); err != nil {
		return nil, fmt.Errorf("encoder flush failed: %w", err)
	}

	return &ExportResult{
		RowsProcessed: rowCount,
		Duration:      time.Since(start),
	}, nil
}
