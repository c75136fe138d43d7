package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/bukudapur/bukudapur/internal/rebuild"
)

func TestEnqueueLedgerRebuild(t *testing.T) {
	srv := miniredis.RunT(t)
	client, err := NewClient(asynq.RedisClientOpt{Addr: srv.Addr()})
	require.NoError(t, err)
	defer client.Close()

	info, err := client.EnqueueLedgerRebuild(context.Background(), LedgerRebuildPayload{
		TenantID:  7,
		Requested: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, TaskLedgerRebuild, info.Type)
	require.Equal(t, QueueDefault, info.Queue)

	var payload LedgerRebuildPayload
	require.NoError(t, json.Unmarshal(info.Payload, &payload))
	require.EqualValues(t, 7, payload.TenantID)
}

type fakeEngine struct {
	single []int64
	swept  [][]int64
	err    error
}

func (f *fakeEngine) Rebuild(ctx context.Context, tenantID int64) (rebuild.Result, error) {
	f.single = append(f.single, tenantID)
	return rebuild.Result{TenantID: tenantID, EntriesPosted: 3}, f.err
}

func (f *fakeEngine) RebuildAll(ctx context.Context, tenantIDs []int64) ([]rebuild.Result, error) {
	f.swept = append(f.swept, tenantIDs)
	out := make([]rebuild.Result, len(tenantIDs))
	return out, f.err
}

type fakeTenants struct{ ids []int64 }

func (f *fakeTenants) ListTenantIDs(ctx context.Context) ([]int64, error) {
	return f.ids, nil
}

func TestRebuildHandlerSingleTenant(t *testing.T) {
	engine := &fakeEngine{}
	handler := NewRebuildHandler(engine, &fakeTenants{}, nil, nil)

	task, err := NewLedgerRebuildTask(LedgerRebuildPayload{TenantID: 4})
	require.NoError(t, err)
	require.NoError(t, handler.Handle(context.Background(), task))
	require.Equal(t, []int64{4}, engine.single)
	require.Empty(t, engine.swept)
}

func TestRebuildHandlerSweepsWhenNoTenant(t *testing.T) {
	engine := &fakeEngine{}
	handler := NewRebuildHandler(engine, &fakeTenants{ids: []int64{1, 2, 3}}, nil, nil)

	task, err := NewLedgerRebuildTask(LedgerRebuildPayload{})
	require.NoError(t, err)
	require.NoError(t, handler.Handle(context.Background(), task))
	require.Empty(t, engine.single)
	require.Equal(t, [][]int64{{1, 2, 3}}, engine.swept)
}

func TestRebuildHandlerSkipsBadPayload(t *testing.T) {
	handler := NewRebuildHandler(&fakeEngine{}, &fakeTenants{}, nil, nil)
	task := asynq.NewTask(TaskLedgerRebuild, []byte("not json"))
	require.ErrorIs(t, handler.Handle(context.Background(), task), asynq.SkipRetry)
}
