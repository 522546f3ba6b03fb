package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passkeep/authsvc/internal/logging"
)

func TestLoggerNotifierWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(logging.NewWithWriter(&buf, "authsvc", "info"))

	err := n.Send(context.Background(), Message{Kind: KindLoginOTP, Destination: "a@x.com", Body: "OTP for a@x.com: 123456"})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "notification", entry["msg"])
	assert.Equal(t, KindLoginOTP, entry["kind"])
	assert.Equal(t, "a@x.com", entry["destination"])
	assert.Equal(t, "OTP for a@x.com: 123456", entry["body"])
}

func TestLoggerNotifierNilSafe(t *testing.T) {
	var n *LoggerNotifier
	assert.NoError(t, n.Send(context.Background(), Message{}))
}

func TestRecorderLast(t *testing.T) {
	var r Recorder
	ctx := context.Background()
	require.NoError(t, r.Send(ctx, Message{Kind: KindLoginOTP, Destination: "a@x.com", Body: "1"}))
	require.NoError(t, r.Send(ctx, Message{Kind: KindResetOTP, Destination: "a@x.com", Body: "2"}))
	require.NoError(t, r.Send(ctx, Message{Kind: KindLoginOTP, Destination: "a@x.com", Body: "3"}))

	m, ok := r.Last(KindLoginOTP, "a@x.com")
	require.True(t, ok)
	assert.Equal(t, "3", m.Body)

	_, ok = r.Last(KindResetLink, "a@x.com")
	assert.False(t, ok)
	assert.Equal(t, 3, r.Len())
}
