package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ipv4FirstDialer tries the IPv4 addresses of a host before handing the
// address to the system dialer. Supabase hosts often publish AAAA records
// that are unreachable from IPv4-only networks, while IPv6-only endpoints
// still connect through the fallback.
type ipv4FirstDialer struct {
	lookup func(ctx context.Context, network, host string) ([]net.IP, error)
	dialer net.Dialer
}

func newIPv4FirstDialer() *ipv4FirstDialer {
	return &ipv4FirstDialer{lookup: net.DefaultResolver.LookupIP}
}

// DialContext matches pgconn.DialFunc.
func (d *ipv4FirstDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("postgres: split host/port %q: %w", addr, err)
	}

	if ip := net.ParseIP(host); ip != nil {
		family := "tcp6"
		if ip.To4() != nil {
			family = "tcp4"
		}
		return d.dialer.DialContext(ctx, family, addr)
	}

	var errs []error
	ips, err := d.lookup(ctx, "ip4", host)
	if err != nil {
		errs = append(errs, err)
	}
	for _, ip := range ips {
		conn, err := d.dialer.DialContext(ctx, "tcp4", net.JoinHostPort(ip.String(), port))
		if err == nil {
			return conn, nil
		}
		errs = append(errs, err)
	}

	conn, err := d.dialer.DialContext(ctx, network, addr)
	if err == nil {
		return conn, nil
	}
	errs = append(errs, err)
	return nil, fmt.Errorf("postgres: dial %s: %w", addr, errors.Join(errs...))
}
