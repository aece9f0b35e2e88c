package worker

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"aurora-dataapi/internal/dataapi"
	"aurora-dataapi/internal/storage"
)

type fakeClient struct {
	mu        sync.Mutex
	sqls      []string
	probeErr  error
	stmtErr   error
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	delay     time.Duration
}

func (f *fakeClient) ExecuteStatement(ctx context.Context, in *rdsdata.ExecuteStatementInput, _ ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error) {
	sql := aws.ToString(in.Sql)
	f.mu.Lock()
	f.sqls = append(f.sqls, sql)
	f.mu.Unlock()

	if sql == dataapi.MySQL.ProbeSQL {
		if f.probeErr != nil {
			return nil, f.probeErr
		}
		return &rdsdata.ExecuteStatementOutput{}, nil
	}

	if f.stmtErr != nil {
		return nil, f.stmtErr
	}

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxFlight.Load()
		if n <= m || f.maxFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return &rdsdata.ExecuteStatementOutput{
		ColumnMetadata: []types.ColumnMetadata{
			{Name: aws.String("id"), TypeName: aws.String("BIGINT")},
			{Name: aws.String("created"), TypeName: aws.String("DATETIME")},
		},
		Records: [][]types.Field{
			{&types.FieldMemberLongValue{Value: 7}, &types.FieldMemberStringValue{Value: "2024-01-02 03:04:05"}},
		},
	}, nil
}

func (f *fakeClient) count(sql string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sqls {
		if s == sql {
			n++
		}
	}
	return n
}

func newTestPool(t *testing.T, client *fakeClient, opts Options) (*Pool, *storage.LocalProvider) {
	t.Helper()
	store, err := storage.NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	m := dataapi.NewManager(dataapi.MySQL, dataapi.Config{}, dataapi.WithClientFactory(func(aws.Config) dataapi.Client {
		return client
	}))
	opts.Dialect = "mysql"
	opts.ConnConfig = dataapi.Config{DialectOptions: dataapi.DialectOptions{ResourceArn: "arn", SecretStoreArn: "secret", Database: "db"}}
	return NewPool(m, store, opts), store
}

func waitJob(t *testing.T, job *ExportJob) {
	t.Helper()
	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("job %s did not finish", job.ID)
	}
}

func readExport(t *testing.T, store storage.Provider, key string, gzipped bool) string {
	t.Helper()
	r, err := store.OpenFile(context.Background(), key)
	require.NoError(t, err)
	defer r.Close()

	var src io.Reader = r
	if gzipped {
		gz, err := gzip.NewReader(r)
		require.NoError(t, err)
		defer gz.Close()
		src = gz
	}
	data, err := io.ReadAll(src)
	require.NoError(t, err)
	return string(data)
}

func TestPoolExportsJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeClient{}
	pool, store := newTestPool(t, client, Options{Workers: 1})
	pool.Start()

	first := NewExportJob("SELECT id, created FROM t", "csv", time.Minute)
	second := NewExportJob("SELECT id, created FROM t", "csv", time.Minute)
	require.NoError(t, pool.Submit(first))
	require.NoError(t, pool.Submit(second))
	waitJob(t, first)
	waitJob(t, second)
	pool.Stop()

	snap, ok := pool.Snapshot(first.ID)
	require.True(t, ok)
	require.NoError(t, snap.Error)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.EqualValues(t, 1, snap.Stats.RowsProcessed)
	assert.Equal(t, "exports/"+first.ID+".csv", snap.Key)
	assert.Equal(t, "id,created\n7,2024-01-02 03:04:05\n", readExport(t, store, snap.Key, false))

	// One worker connects once and reuses the validated connection.
	assert.Equal(t, 1, client.count(dataapi.MySQL.ProbeSQL))
}

func TestPoolGzip(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool, store := newTestPool(t, &fakeClient{}, Options{Workers: 1, UseGzip: true})
	pool.Start()
	job := NewExportJob("SELECT id FROM t", "json", time.Minute)
	require.NoError(t, pool.Submit(job))
	waitJob(t, job)
	pool.Stop()

	snap, _ := pool.Snapshot(job.ID)
	require.NoError(t, snap.Error)
	assert.Equal(t, "exports/"+job.ID+".jsonl.gz", snap.Key)
	assert.Equal(t, `{"created":"2024-01-02T03:04:05Z","id":7}`+"\n", readExport(t, store, snap.Key, true))
}

func TestPoolConnectFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeClient{probeErr: &smithy.GenericAPIError{Code: "ER_ACCESS_DENIED_ERROR"}}
	pool, _ := newTestPool(t, client, Options{Workers: 1})
	pool.Start()
	job := NewExportJob("SELECT 1", "csv", time.Minute)
	require.NoError(t, pool.Submit(job))
	waitJob(t, job)
	pool.Stop()

	snap, _ := pool.Snapshot(job.ID)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.ErrorIs(t, snap.Error, dataapi.ErrAccessDenied)
}

func TestPoolRejectsUnsafeStatements(t *testing.T) {
	pool, _ := newTestPool(t, &fakeClient{}, Options{Workers: 1})
	job := NewExportJob("DELETE FROM t", "csv", time.Minute)
	defer job.Cancel()

	assert.Error(t, pool.Submit(job))
	_, ok := pool.Snapshot(job.ID)
	assert.False(t, ok)
}

func TestPoolLimitsStatements(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeClient{delay: 20 * time.Millisecond}
	pool, _ := newTestPool(t, client, Options{Workers: 4, MaxStatements: 2})
	pool.Start()

	jobs := make([]*ExportJob, 8)
	for i := range jobs {
		jobs[i] = NewExportJob("SELECT id FROM t", "csv", time.Minute)
		require.NoError(t, pool.Submit(jobs[i]))
	}
	for _, job := range jobs {
		waitJob(t, job)
	}
	pool.Stop()

	assert.LessOrEqual(t, client.maxFlight.Load(), int32(2))
	for _, job := range jobs {
		snap, _ := pool.Snapshot(job.ID)
		assert.Equal(t, StatusCompleted, snap.Status)
	}
}

func TestPoolQueueFullAndStopped(t *testing.T) {
	pool, _ := newTestPool(t, &fakeClient{}, Options{Workers: 1, QueueSize: 1})

	queued := NewExportJob("SELECT 1", "csv", time.Minute)
	require.NoError(t, pool.Submit(queued))

	overflow := NewExportJob("SELECT 1", "csv", time.Minute)
	defer overflow.Cancel()
	assert.ErrorIs(t, pool.Submit(overflow), ErrQueueFull)

	pool.Stop()
	waitJob(t, queued)
	snap, _ := pool.Snapshot(queued.ID)
	assert.ErrorIs(t, snap.Error, ErrPoolStopped)

	late := NewExportJob("SELECT 1", "csv", time.Minute)
	defer late.Cancel()
	assert.ErrorIs(t, pool.Submit(late), ErrPoolStopped)
}

func TestPoolDiscardsPartialExport(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeClient{stmtErr: &smithy.GenericAPIError{Code: "BadRequestException", Message: "syntax error"}}
	pool, store := newTestPool(t, client, Options{Workers: 1})
	pool.Start()
	job := NewExportJob("SELECT id FROM t", "csv", time.Minute)
	require.NoError(t, pool.Submit(job))
	waitJob(t, job)
	pool.Stop()

	snap, _ := pool.Snapshot(job.ID)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Empty(t, snap.Key)

	_, err := store.OpenFile(context.Background(), "exports/"+job.ID+".csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestPoolForget(t *testing.T) {
	pool, _ := newTestPool(t, &fakeClient{}, Options{Workers: 1})

	pending := NewExportJob("SELECT 1", "csv", time.Minute)
	require.NoError(t, pool.Submit(pending))
	assert.False(t, pool.Forget(pending.ID))
	_, ok := pool.Snapshot(pending.ID)
	assert.True(t, ok)

	pool.Start()
	waitJob(t, pending)
	pool.Stop()

	assert.True(t, pool.Forget(pending.ID))
	_, ok = pool.Snapshot(pending.ID)
	assert.False(t, ok)
	assert.False(t, pool.Forget(pending.ID))
	assert.False(t, pool.Forget("missing"))
}
