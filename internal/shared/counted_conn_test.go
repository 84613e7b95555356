package shared

import (
	"io"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountedConn_CountsBothDirections(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	cc := NewCountedConn(client, nil, nil)
	defer cc.Close()

	go func() {
		buf := make([]byte, 5)
		_, _ = io.ReadFull(server, buf)
		_, _ = server.Write([]byte("abc"))
	}()

	n, err := cc.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 8)
	n, err = cc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))

	assert.Equal(t, uint64(5), cc.Sent())
	assert.Equal(t, uint64(3), cc.Received())
}

func TestCountedConn_SharedCounters(t *testing.T) {
	var sent, received atomic.Uint64

	for i := 0; i < 2; i++ {
		client, server := net.Pipe()
		cc := NewCountedConn(client, &sent, &received)
		go func() {
			_, _ = io.Copy(io.Discard, server)
		}()
		_, err := cc.Write([]byte("ping"))
		require.NoError(t, err)
		cc.Close()
		server.Close()
	}

	assert.Equal(t, uint64(8), sent.Load())
	assert.Equal(t, uint64(0), received.Load())
}
