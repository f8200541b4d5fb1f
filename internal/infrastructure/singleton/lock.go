// Package singleton keeps one edachat daemon per port.
package singleton

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

const (
	// ServiceName is reported by /health and checked when the port is taken.
	ServiceName = "edachat"
	// HealthCheckTimeout bounds the probe of an existing instance.
	HealthCheckTimeout = 2 * time.Second
)

// ErrPortTaken means the port is held by something that is not a healthy edachat instance.
var ErrPortTaken = errors.New("port in use by another process")

// CheckAndLock tries to listen on port.
//
// It returns the listener when the port is free, (nil, nil) when a healthy instance
// already serves it (the caller should exit), and ErrPortTaken when the holder does not
// answer the health probe.
func CheckAndLock(port string) (net.Listener, error) {
	listener, err := net.Listen("tcp", port)
	if err == nil {
		return listener, nil
	}

	if isAddrInUse(err) {
		if isInstanceRunning(port) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s did not pass the health check", ErrPortTaken, port)
	}

	return nil, fmt.Errorf("listen on %s: %w", port, err)
}

func isAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	// WSAEADDRINUSE
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == 10048
}

func isInstanceRunning(port string) bool {
	client := &http.Client{
		Timeout: HealthCheckTimeout,
	}

	resp, err := client.Get(fmt.Sprintf("http://localhost%s/health", port))
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var body struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.Status == "ok" && body.Service == ServiceName
}
