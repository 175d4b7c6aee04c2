//go:build !unix && !windows

package discovery

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
