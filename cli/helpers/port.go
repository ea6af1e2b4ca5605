package helpers

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// EnsurePortAvailable fails when host:port cannot be bound right now.
func EnsurePortAvailable(ctx context.Context, host string, port int) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", formatAddress(host, port))
	if err != nil {
		return fmt.Errorf("port %d is not available on host %s: %w", port, host, err)
	}
	return listener.Close()
}

func formatAddress(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
