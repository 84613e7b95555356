//go:build linux

package sockopt

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// ReuseAddr 是 net.ListenConfig.Control 回调，在 bind 之前设置 SO_REUSEADDR，
// 使 peer 重启时不必等待 TIME_WAIT 结束。
func ReuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return fmt.Errorf("failed to access raw socket for %s: %w", address, err)
	}
	if sockErr != nil {
		return fmt.Errorf("setsockopt(SO_REUSEADDR) on %s failed: %w", address, sockErr)
	}
	return nil
}
