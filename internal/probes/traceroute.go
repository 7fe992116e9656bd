package probes

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var (
	hopFromRe  = regexp.MustCompile(`(?m)^From ([^\s]+)`)
	hopBytesRe = regexp.MustCompile(`(?m)^\d+ bytes from ([^\s]+)(?: \(([0-9a-fA-F:\.]+)\))?`)
	hopTimeRe  = regexp.MustCompile(`time[=<]([0-9.]+) ms`)
)

// Traceroute walks the path hop by hop with TTL-limited pings, the same way
// the agent-side implementation does. Each hop gets its own deadline, so the
// worst case is maxHops * hopTimeout regardless of how dead the path is.
func (s *Suite) Traceroute(target string) Report {
	host := hostOf(target)
	if host == "" {
		return failf("traceroute: empty target")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "traceroute to %s, %d hops max\n", host, s.cfg.TracerouteMaxHops)

	reached := false
	for ttl := 1; ttl <= s.cfg.TracerouteMaxHops; ttl++ {
		ip, rtt, done := s.runHop(host, ttl)
		if ip == "" {
			fmt.Fprintf(&b, "%2d  *\n", ttl)
		} else if rtt != "" {
			fmt.Fprintf(&b, "%2d  %s  %s ms\n", ttl, ip, rtt)
		} else {
			fmt.Fprintf(&b, "%2d  %s\n", ttl, ip)
		}
		if done {
			reached = true
			break
		}
	}

	if !reached {
		fmt.Fprintf(&b, "destination not reached within %d hops\n", s.cfg.TracerouteMaxHops)
	}

	return Report{Success: reached, Text: b.String()}
}

// runHop sends one TTL-limited probe. done means the destination itself
// answered, which ends the walk.
func (s *Suite) runHop(host string, ttl int) (ip, rtt string, done bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TracerouteHopTimeout)
	defer cancel()

	deadline := int(s.cfg.TracerouteHopTimeout.Seconds())
	if deadline <= 0 {
		deadline = 1
	}

	args := []string{"-n", "-c", "1", "-t", strconv.Itoa(ttl), "-W", strconv.Itoa(deadline), host}
	out, _ := exec.CommandContext(ctx, "ping", args...).CombinedOutput()
	text := string(out)

	if m := hopBytesRe.FindStringSubmatch(text); len(m) >= 2 {
		ip = strings.Trim(m[1], "<>")
		if len(m) >= 3 && m[2] != "" {
			ip = m[2]
		}
		if tm := hopTimeRe.FindStringSubmatch(text); len(tm) == 2 {
			rtt = tm[1]
		}
		return ip, rtt, true
	}

	if m := hopFromRe.FindStringSubmatch(text); len(m) == 2 {
		ip = strings.Trim(m[1], "<>")
		if tm := hopTimeRe.FindStringSubmatch(text); len(tm) == 2 {
			rtt = tm[1]
		}
	}
	return ip, rtt, false
}
