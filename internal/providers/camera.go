package providers

import (
	"context"
	"net"
)

// CameraDialer checks TCP reachability of a camera service address.
type CameraDialer interface {
	Reachable(ctx context.Context, addr string) error
}

// TCPDialer is the production dialer. The caller's context carries the
// per-probe timeout.
type TCPDialer struct{}

func (TCPDialer) Reachable(ctx context.Context, addr string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}
