//go:build !windows

package portprobe

import "syscall"

var errAddrInUse error = syscall.EADDRINUSE
