package queue_test

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcretail/pkg/platform/queue"
	"abcretail/pkg/platform/queue/memory"
)

type sample struct {
	Action string `json:"Action"`
	RowKey string `json:"RowKey"`
	Count  int    `json:"Count"`
}

func TestJSONCodec(t *testing.T) {
	codec := queue.JSONCodec[sample]{}

	t.Run("round trip is base64 of JSON", func(t *testing.T) {
		body, err := codec.Encode(sample{Action: "Create", RowKey: "r1", Count: 2})
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"Action":"Create","RowKey":"r1","Count":2}`, string(raw))

		got, err := codec.Decode(body)
		require.NoError(t, err)
		assert.Equal(t, sample{Action: "Create", RowKey: "r1", Count: 2}, got)
	})

	t.Run("raw JSON is accepted", func(t *testing.T) {
		got, err := codec.Decode(`  {"action":"Delete","rowkey":"r9"} `)
		require.NoError(t, err)
		assert.Equal(t, "Delete", got.Action)
		assert.Equal(t, "r9", got.RowKey)
	})

	t.Run("malformed bodies wrap ErrDecode", func(t *testing.T) {
		for _, body := range []string{"", "   ", "not json", base64.StdEncoding.EncodeToString([]byte("nope")), `{"Count":"x"}`} {
			_, err := codec.Decode(body)
			assert.ErrorIs(t, err, queue.ErrDecode, "body %q", body)
		}
	})
}

func TestTyped(t *testing.T) {
	ctx := context.Background()
	raw := memory.New("typed")
	typed := queue.NewTyped[sample](raw, queue.JSONCodec[sample]{})

	_, err := typed.Append(ctx, sample{Action: "Create", RowKey: "a"})
	require.NoError(t, err)
	_, err = raw.Append(ctx, "garbage")
	require.NoError(t, err)

	peeked, err := typed.Peek(ctx, 10)
	require.NoError(t, err)
	require.Len(t, peeked, 2)
	assert.NoError(t, peeked[0].DecodeErr)
	assert.Equal(t, "a", peeked[0].Value.RowKey)
	assert.ErrorIs(t, peeked[1].DecodeErr, queue.ErrDecode)
	assert.Equal(t, "garbage", peeked[1].Body)

	got, err := typed.Receive(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, d := range got {
		require.NoError(t, typed.Delete(ctx, d))
	}
	assert.Zero(t, raw.Len())
}

func TestClampBatch(t *testing.T) {
	assert.Equal(t, 1, queue.ClampBatch(-3))
	assert.Equal(t, 1, queue.ClampBatch(0))
	assert.Equal(t, 7, queue.ClampBatch(7))
	assert.Equal(t, queue.MaxBatch, queue.ClampBatch(500))
}
