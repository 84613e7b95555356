// Package connector implements the one-shot TCP probe: connect, send a fixed
// greeting, read a single reply and print it.
package connector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
	"unicode/utf8"

	"connprobe/internal/shared"
	"connprobe/internal/shared/logger"
)

const (
	DefaultAddr    = "192.168.1.2:80"
	DefaultPayload = "connect ok?"
	DefaultDelay   = 400 * time.Millisecond
	DefaultBufSize = 1024

	resultPrefix = "recv connect result: "
)

// ErrInvalidUTF8 is returned when the reply cannot be decoded as UTF-8 text.
var ErrInvalidUTF8 = errors.New("response is not valid UTF-8")

// Target 描述一次探测的全部参数。
type Target struct {
	Addr    string
	Payload []byte
	Delay   time.Duration
	BufSize int
}

// Default returns the fixed probe target.
func Default() Target {
	return Target{
		Addr:    DefaultAddr,
		Payload: []byte(DefaultPayload),
		Delay:   DefaultDelay,
		BufSize: DefaultBufSize,
	}
}

// Result is what a successful probe observed.
type Result struct {
	Text     string
	Sent     uint64
	Received uint64
}

// Run executes the probe against t and writes the result line to out.
// A non-positive BufSize means DefaultBufSize.
// Every step blocks; the first failure is returned and nothing is written.
func Run(ctx context.Context, t Target, out io.Writer) (*Result, error) {
	var dialer net.Dialer

	timer := time.NewTimer(t.Delay)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		return nil, fmt.Errorf("delay interrupted: %w", ctx.Err())
	}

	start := time.Now()
	rawConn, err := dialer.DialContext(ctx, "tcp", t.Addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", t.Addr, err)
	}
	conn := shared.NewCountedConn(rawConn, nil, nil)
	defer conn.Close()
	logger.Debug().Str("remote", conn.RemoteAddr().String()).Dur("dial", time.Since(start)).Msg("connected")

	if _, err := conn.Write(t.Payload); err != nil {
		return nil, fmt.Errorf("send payload: %w", err)
	}

	bufSize := t.BufSize
	if bufSize <= 0 {
		bufSize = DefaultBufSize
	}
	buf := make([]byte, bufSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("receive: %w", err)
	}

	data := buf[:n]
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("decode %d bytes: %w", n, ErrInvalidUTF8)
	}

	res := &Result{
		Text:     string(data),
		Sent:     conn.Sent(),
		Received: conn.Received(),
	}
	logger.Debug().Uint64("sent", res.Sent).Uint64("received", res.Received).Msg("probe finished")

	if _, err := fmt.Fprintln(out, resultPrefix+res.Text); err != nil {
		return nil, fmt.Errorf("print result: %w", err)
	}
	return res, nil
}
