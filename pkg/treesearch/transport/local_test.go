package transport

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yewpar-go/yewpar/pkg/errors"
)

func TestLocalTransport_BroadcastReachesEveryLocality(t *testing.T) {
	cluster := NewLocalCluster(0, 1, 2)

	var got []int
	for _, id := range []int{0, 1, 2} {
		id := id
		cluster.ForLocality(id).Register("ping", func(ctx context.Context, payload json.RawMessage) (any, error) {
			got = append(got, id)
			return nil, nil
		})
	}

	err := cluster.ForLocality(0).Broadcast(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2}, got)
}

func TestLocalTransport_RemoteCallRoundTrips(t *testing.T) {
	cluster := NewLocalCluster(0, 1)
	cluster.ForLocality(1).Register("echo", func(ctx context.Context, payload json.RawMessage) (any, error) {
		var s string
		require.NoError(t, DecodePayload(payload, &s))
		return s + "-pong", nil
	})

	raw, err := cluster.ForLocality(0).RemoteCall(context.Background(), 1, "echo", "ping")
	require.NoError(t, err)

	var result string
	require.NoError(t, DecodePayload(raw, &result))
	assert.Equal(t, "ping-pong", result)
}

func TestLocalTransport_UnknownOpIsTransportError(t *testing.T) {
	cluster := NewLocalCluster(0)
	_, err := cluster.ForLocality(0).RemoteCall(context.Background(), 0, "missing", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTransportError, apperrors.GetErrorCode(err))
}
