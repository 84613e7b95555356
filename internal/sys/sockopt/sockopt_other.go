//go:build !linux

package sockopt

import "syscall"

// ReuseAddr 在非Linux系统上不做任何事
func ReuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
