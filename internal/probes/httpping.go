package probes

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPPing fetches the target and reports status code, latency and the
// resolved address. Targets without a scheme get http:// or https://
// prepended depending on which check was requested.
func (s *Suite) HTTPPing(target string, secure bool) Report {
	u, err := prepareURL(target, secure)
	if err != nil {
		return failf("http: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return failf("http %s: %v", u, err)
	}

	client := &http.Client{Timeout: s.cfg.HTTPTimeout}

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return failf("GET %s failed after %v: %v", u, latency.Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	var b strings.Builder
	fmt.Fprintf(&b, "GET %s\n", u)
	fmt.Fprintf(&b, "status: %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	fmt.Fprintf(&b, "time: %v\n", latency.Round(time.Millisecond))
	if ip := resolveHost(u); ip != "" {
		fmt.Fprintf(&b, "ip: %s\n", ip)
	}

	return Report{Success: resp.StatusCode < http.StatusBadRequest, Text: b.String()}
}

func prepareURL(target string, secure bool) (string, error) {
	t := strings.TrimSpace(target)
	if t == "" {
		return "", fmt.Errorf("empty target")
	}
	if !strings.Contains(t, "://") {
		if secure {
			t = "https://" + t
		} else {
			t = "http://" + t
		}
	}
	u, err := url.Parse(t)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("no host in %q", target)
	}
	return u.String(), nil
}

func resolveHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	addrs, err := net.LookupIP(host)
	if err != nil || len(addrs) == 0 {
		return ""
	}
	return addrs[0].String()
}
