package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"abcretail/internal/order/command"
	"abcretail/internal/order/worker/mocks"
	"abcretail/pkg/platform/queue"
)

func TestPoller_PollOnceHandlesEveryDelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := mocks.NewMockQueue(ctrl)
	h := mocks.NewMockHandler(ctrl)

	batch := []queue.Delivery[command.Command]{
		delivery("1", 1, command.DeleteOrder{Key: "a"}),
		delivery("2", 1, command.DeleteOrder{Key: "b"}),
		delivery("3", 1, command.DeleteOrder{Key: "c"}),
	}
	q.EXPECT().Receive(gomock.Any(), 8).Return(batch, nil)
	h.EXPECT().Handle(gomock.Any(), batch[0]).Return(nil)
	h.EXPECT().Handle(gomock.Any(), batch[1]).Return(errors.New("left for redelivery"))
	h.EXPECT().Handle(gomock.Any(), batch[2]).Return(nil)

	p := NewPoller(q, h, WithBatchSize(8), WithConcurrency(2),
		WithPollerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	n, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := mocks.NewMockQueue(ctrl)
	h := mocks.NewMockHandler(ctrl)
	q.EXPECT().Receive(gomock.Any(), queue.MaxBatch).Return(nil, nil).MinTimes(1)

	p := NewPoller(q, h, WithPollInterval(5*time.Millisecond),
		WithPollerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
