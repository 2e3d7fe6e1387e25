package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONMessage(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	msg, err := NewJSONMessage("shop.orders", map[string]int{"order_id": 7}, now)
	require.NoError(t, err)

	assert.Equal(t, "shop.orders", msg.QueueName)
	assert.Equal(t, "shop.orders", msg.RoutingKey)
	assert.Empty(t, msg.ExchangeName)
	assert.JSONEq(t, `{"order_id":7}`, string(msg.Payload))
	assert.Equal(t, ContentTypeJSON, msg.ContentType)
	assert.Equal(t, DefaultMaxRetries, msg.MaxRetries)
	assert.Equal(t, now, msg.NextRetryAt)
}

func TestNewJSONMessage_Unmarshalable(t *testing.T) {
	_, err := NewJSONMessage("shop.orders", make(chan int), time.Now())
	require.Error(t, err)
}
