// Package peer is the server side of the probe: it greets every connection
// with "connect ok" and answers each further message until the client asks
// to close.
package peer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"

	"connprobe/internal/shared"
	"connprobe/internal/shared/logger"
	"connprobe/internal/shared/types"
	"connprobe/internal/sys/sockopt"
)

const (
	GreetingReply = "connect ok"
	MessageReply  = "response from server"
	CloseCommand  = "close connection"
)

// Stats 汇总所有会话的流量。
type Stats struct {
	Sessions uint64
	Sent     uint64
	Received uint64
}

type Server struct {
	conf     types.PeerConf
	listener net.Listener
	log      zerolog.Logger

	closeOnce sync.Once
	waitGroup sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	sessions atomic.Uint64
	sent     atomic.Uint64
	received atomic.Uint64
}

func New(conf types.PeerConf) *Server {
	if conf.BufferSize <= 0 {
		conf.BufferSize = 1024
	}
	return &Server{
		conf:  conf,
		log:   logger.WithComponent("peer"),
		conns: make(map[net.Conn]struct{}),
	}
}

// Listen 绑定监听端口但不阻塞，返回实际监听的端口号（Port 为 0 时由系统分配）。
func (s *Server) Listen() (int, error) {
	listenAddr := net.JoinHostPort(s.conf.Host, strconv.Itoa(s.conf.Port))
	lc := net.ListenConfig{Control: sockopt.ReuseAddr}
	ln, err := lc.Listen(context.Background(), "tcp", listenAddr)
	if err != nil {
		return 0, fmt.Errorf("peer failed to listen on %s: %w", listenAddr, err)
	}
	if s.conf.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.conf.MaxConnections)
	}
	s.listener = ln

	s.log.Info().Str("listen_addr", ln.Addr().String()).Int("max_connections", s.conf.MaxConnections).Int("max_sessions", s.conf.MaxSessions).Msg("Peer is listening")
	return ln.Addr().(*net.TCPAddr).Port, nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the blocking accept loop. Listen must be called first.
// With MaxSessions > 0 it stops accepting after that many connections, waits
// for them to finish and returns.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("peer: Serve called before Listen")
	}
	accepted := 0
	for {
		if s.conf.MaxSessions > 0 && accepted >= s.conf.MaxSessions {
			s.log.Info().Int("sessions", accepted).Msg("Session budget used up, waiting for open sessions")
			s.waitGroup.Wait()
			s.log.Info().Msg("All sessions finished")
			return s.Close()
		}
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.log.Info().Msg("Peer listener is closing.")
				return nil
			}
			s.log.Warn().Err(err).Msg("Peer failed to accept connection")
			continue
		}
		if !s.track(conn) {
			conn.Close()
			return nil
		}
		accepted++
		go s.handleConnection(conn)
	}
}

// Close stops accepting, closes every live session and waits for them to end.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.listener != nil {
			err = s.listener.Close()
		}
		s.mu.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.conns = nil
		s.mu.Unlock()
	})
	s.waitGroup.Wait()
	return err
}

func (s *Server) Stats() Stats {
	return Stats{
		Sessions: s.sessions.Load(),
		Sent:     s.sent.Load(),
		Received: s.received.Load(),
	}
}

// track registers a session. It fails once Close has started.
func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[c] = struct{}{}
	s.waitGroup.Add(1)
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns != nil {
		delete(s.conns, c)
	}
}

func (s *Server) handleConnection(rawConn net.Conn) {
	defer s.waitGroup.Done()
	defer s.untrack(rawConn)
	defer rawConn.Close()

	s.sessions.Add(1)
	conn := shared.NewCountedConn(rawConn, nil, nil)
	l := s.log.With().Str("trace_id", uuid.NewString()).Str("client_ip", rawConn.RemoteAddr().String()).Logger()
	l.Debug().Msg("client connected")

	if err := serveSession(conn, s.conf.BufferSize); err != nil {
		l.Warn().Err(err).Uint64("sent", conn.Sent()).Uint64("received", conn.Received()).Msg("session ended with error")
	} else {
		l.Debug().Uint64("sent", conn.Sent()).Uint64("received", conn.Received()).Msg("session closed")
	}
	// 会话结束后才计入全局统计
	s.sent.Add(conn.Sent())
	s.received.Add(conn.Received())
}

// serveSession 运行单个连接的应答协议。客户端断开 (EOF) 视为正常结束。
func serveSession(rw io.ReadWriter, bufSize int) error {
	buf := make([]byte, bufSize)

	if _, err := rw.Read(buf); err != nil {
		if isClosed(err) {
			return nil
		}
		return fmt.Errorf("read greeting: %w", err)
	}
	if _, err := rw.Write([]byte(GreetingReply)); err != nil {
		return fmt.Errorf("write greeting reply: %w", err)
	}

	for {
		n, err := rw.Read(buf)
		if n > 0 {
			msg := buf[:n]
			if i := bytes.IndexByte(msg, 0); i >= 0 {
				msg = msg[:i]
			}
			if string(msg) == CloseCommand {
				return nil
			}
			if _, werr := rw.Write([]byte(MessageReply)); werr != nil {
				return fmt.Errorf("write reply: %w", werr)
			}
		}
		if err != nil {
			if isClosed(err) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
	}
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
