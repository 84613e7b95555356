package shared

import (
	"net"
	"sync/atomic"
)

// CountedConn 包装 net.Conn，原子地统计发送与接收的字节数。
type CountedConn struct {
	net.Conn
	sent     *atomic.Uint64
	received *atomic.Uint64
}

// NewCountedConn 创建一个 CountedConn。sent/received 可以为 nil，此时使用私有计数器；
// 传入共享计数器可以把多个连接的流量汇总到一起。
func NewCountedConn(conn net.Conn, sent, received *atomic.Uint64) *CountedConn {
	if sent == nil {
		sent = new(atomic.Uint64)
	}
	if received == nil {
		received = new(atomic.Uint64)
	}
	return &CountedConn{
		Conn:     conn,
		sent:     sent,
		received: received,
	}
}

func (c *CountedConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.received.Add(uint64(n))
	}
	return n, err
}

func (c *CountedConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if n > 0 {
		c.sent.Add(uint64(n))
	}
	return n, err
}

// Sent returns the bytes written so far.
func (c *CountedConn) Sent() uint64 { return c.sent.Load() }

// Received returns the bytes read so far.
func (c *CountedConn) Received() uint64 { return c.received.Load() }
