package probes

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// TCPPing opens one TCP connection and reports the connect latency. A port
// in the target wins over the configured default.
func (s *Suite) TCPPing(target string) Report {
	host := strings.TrimSpace(target)
	if host == "" {
		return failf("tcp: empty target")
	}

	port := s.cfg.TCPPort
	if strings.Contains(host, "://") {
		host = hostOf(host)
	}
	if h, p, err := net.SplitHostPort(host); err == nil {
		if n, convErr := strconv.Atoi(p); convErr == nil {
			host, port = h, n
		}
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, s.cfg.TCPTimeout)
	latency := time.Since(start)
	if err != nil {
		return failf("tcp connect %s failed after %v: %v", addr, latency.Round(time.Millisecond), err)
	}
	defer conn.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "tcp connect %s\n", addr)
	fmt.Fprintf(&b, "remote: %s\n", conn.RemoteAddr())
	fmt.Fprintf(&b, "time: %v\n", latency.Round(time.Millisecond))

	return Report{Success: true, Text: b.String()}
}
