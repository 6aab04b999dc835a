package command

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcretail/internal/domain"
	"abcretail/pkg/platform/queue"
)

func sampleOrder() domain.Order {
	return domain.Order{
		Entity:     domain.Entity{RowKey: "order-1"},
		CustomerID: "cust-1",
		ProductID:  "prod-1",
		Quantity:   2,
		OrderDate:  time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		TotalPrice: 39.98,
		Status:     domain.OrderStatusPending,
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := Codec{}
	cases := []Command{
		CreateOrder{Order: sampleOrder()},
		UpdateOrder{Order: sampleOrder(), IfMatch: "v1"},
		UpdateOrder{Order: sampleOrder(), IfMatch: IfMatchAny},
		DeleteOrder{Key: "order-1"},
	}
	for _, cmd := range cases {
		t.Run(string(cmd.Action()), func(t *testing.T) {
			body, err := codec.Encode(cmd)
			require.NoError(t, err)
			_, err = base64.StdEncoding.DecodeString(body)
			require.NoError(t, err, "bodies travel base64 encoded")

			got, err := codec.Decode(body)
			require.NoError(t, err)
			assert.Equal(t, cmd, got)
			assert.Equal(t, "order-1", got.RowKey())
		})
	}
}

func TestDecodeAcceptsLegacyShapes(t *testing.T) {
	codec := Codec{}

	t.Run("raw JSON with mixed case action and field names", func(t *testing.T) {
		cmd, err := codec.Decode(`{"action":"CREATE","data":{"RowKey":"r1","CustomerId":"c","ProductId":"p","Quantity":1,"TotalPrice":5}}`)
		require.NoError(t, err)
		create, ok := cmd.(CreateOrder)
		require.True(t, ok)
		assert.Equal(t, "r1", create.Order.RowKey)
		assert.Equal(t, "c", create.Order.CustomerID)
		assert.Equal(t, 1, create.Order.Quantity)
	})

	t.Run("row key on the envelope fills the order", func(t *testing.T) {
		cmd, err := codec.Decode(`{"Action":"update","RowKey":"r2","Data":{"customerId":"c"}}`)
		require.NoError(t, err)
		assert.Equal(t, "r2", cmd.RowKey())
	})
}

func TestCreateWithoutRowKeyDecodes(t *testing.T) {
	cmd, err := Codec{}.Decode(`{"Action":"Create","Data":{"CustomerId":"C1","ProductId":"P1","Quantity":2,"TotalPrice":19.98}}`)
	require.NoError(t, err)
	create, ok := cmd.(CreateOrder)
	require.True(t, ok)
	assert.Empty(t, create.RowKey())
	assert.Equal(t, "C1", create.Order.CustomerID)
	assert.Equal(t, 19.98, create.Order.TotalPrice)
}

func TestDecodeFailuresWrapErrDecode(t *testing.T) {
	codec := Codec{}
	bodies := map[string]string{
		"not json":            "%%%",
		"unknown action":      `{"Action":"archive","RowKey":"r"}`,
		"create without data": `{"Action":"create","RowKey":"r"}`,
		"update without key":  `{"Action":"update","Data":{"customerId":"c"}}`,
		"delete without key":  `{"Action":"delete"}`,
		"bad data":            `{"Action":"update","RowKey":"r","Data":{"quantity":"many"}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(body)
			assert.ErrorIs(t, err, queue.ErrDecode)
		})
	}
}
