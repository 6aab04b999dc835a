package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcretail/internal/domain"
	orderservice "abcretail/internal/order/service"
	"abcretail/internal/platform/config"
	audit "abcretail/pkg/platform/audit"
)

func inMemoryEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REDIS_URL", "DATABASE_URL", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}
	t.Setenv("BLOB_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")
}

func TestInMemoryPipeline(t *testing.T) {
	inMemoryEnv(t)
	ctx := context.Background()
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	cfg.Archive.Format = "csv"

	a, err := newApp(ctx, cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.close()
	require.True(t, a.inMemoryQueues())

	accepted, err := a.orderService().Create(ctx, orderservice.CreateOrderRequest{
		CustomerID: "c-1",
		ProductID:  "p-1",
		Quantity:   2,
		TotalPrice: 19.98,
	})
	require.NoError(t, err)

	n, err := a.poller().PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	order, err := a.orders().Get(ctx, accepted.RowKey)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	recent, err := a.liveView().Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, audit.ActionCreate, recent[0].Action)
	assert.Equal(t, audit.EntityOrder, recent[0].Entity)

	arch, err := a.archiver()
	require.NoError(t, err)
	res, err := arch.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Records)

	files, err := a.files().ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, res.File, files[0].Name)

	recent, err = a.liveView().Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, recent, "archived events leave the live view")
}

func TestArchiveCommandOnEmptyQueue(t *testing.T) {
	inMemoryEnv(t)
	cmd := newRootCommandWith(&rootOptions{registerer: prometheus.NewRegistry()})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"archive"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "nothing archived")
}

func TestArchivesListCommand(t *testing.T) {
	inMemoryEnv(t)
	cmd := newRootCommandWith(&rootOptions{registerer: prometheus.NewRegistry()})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"archives", "list"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "NAME")
}

func TestConfigFileMustExist(t *testing.T) {
	inMemoryEnv(t)
	cmd := newRootCommandWith(&rootOptions{registerer: prometheus.NewRegistry()})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", "/nonexistent/abcretail.yaml", "archive"})

	assert.Error(t, cmd.Execute())
}
