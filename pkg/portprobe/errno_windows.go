//go:build windows

package portprobe

import "syscall"

// WSAEADDRINUSE
var errAddrInUse error = syscall.Errno(10048)
