package ptransport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPPeerSendRecvRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	pa := NewTCPPeer(1, a)
	pb := NewTCPPeer(0, b)

	payload := []int32{1, -2, 3, 4, 5, 0}
	done := make(chan error, 1)
	go func() { done <- pa.Send(TagClauses, payload) }()

	tag, got, err := pb.Recv()
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, TagClauses, tag)
	assert.Equal(t, payload, got)
}

func TestTCPPeerEmptyPayload(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	pa := NewTCPPeer(1, a)
	pb := NewTCPPeer(0, b)

	done := make(chan error, 1)
	go func() { done <- pa.Send(TagEnd, nil) }()

	tag, got, err := pb.Recv()
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, TagEnd, tag)
	assert.Empty(t, got)
}
