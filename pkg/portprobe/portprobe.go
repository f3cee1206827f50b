// Package portprobe reports whether local TCP ports can be bound.
package portprobe

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Status is the reported state of a port.
type Status string

const (
	StatusFree     Status = "free"
	StatusOccupied Status = "occupied"
)

// Host is the address ports are probed on.
const Host = "127.0.0.1"

// Result is the outcome for one port.
type Result struct {
	Port   int    `json:"port"`
	Status Status `json:"status"`
}

// Probe tries to bind port on the loopback interface and releases it
// immediately. An "address already in use" failure reports StatusOccupied
// with a nil error. Any other bind failure reports StatusFree together with
// the error, so callers can log it.
func Probe(port int) (Status, error) {
	if port < 0 || port > 65535 {
		return StatusFree, fmt.Errorf("port %d out of range", port)
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(Host, strconv.Itoa(port)))
	if err != nil {
		if isAddrInUse(err) {
			return StatusOccupied, nil
		}
		return StatusFree, fmt.Errorf("bind port %d: %w", port, err)
	}
	if err := ln.Close(); err != nil {
		return StatusFree, fmt.Errorf("release port %d: %w", port, err)
	}
	return StatusFree, nil
}

// IsInUse reports whether port is occupied. Bind failures other than
// "address already in use" count as free.
func IsInUse(port int) bool {
	status, _ := Probe(port)
	return status == StatusOccupied
}

// Check probes ports one after another. onError, when non-nil, receives the
// bind errors that Probe classified as free.
func Check(ports []int, onError func(port int, err error)) []Result {
	out := make([]Result, 0, len(ports))
	for _, port := range ports {
		status, err := Probe(port)
		if err != nil && onError != nil {
			onError(port, err)
		}
		out = append(out, Result{Port: port, Status: status})
	}
	return out
}

func isAddrInUse(err error) bool {
	return errors.Is(err, errAddrInUse)
}
