package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestCodecs(t *testing.T) {
	r := Record{
		ID:            "msg-00000007",
		Category:      ShipmentCreated,
		Payload:       `{"id":"msg-00000007"}`,
		EmittedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Origin:        Origin,
		CorrelationID: CorrelationID("msg-00000007"),
	}

	c, err := NewCodec(FormatJSON)
	require.NoError(t, err)
	b, err := c.Encode(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message_id":"msg-00000007"`)
	assert.Contains(t, string(b), `"correlation_id":"corr-msg-00000007"`)
	assert.Equal(t, "application/json", c.ContentType())

	c, err = NewCodec(FormatMsgpack)
	require.NoError(t, err)
	b, err = c.Encode(r)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, msgpack.Unmarshal(b, &m))
	assert.Equal(t, "SHIPMENT_CREATED", m["event_type"])

	_, err = NewCodec("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
