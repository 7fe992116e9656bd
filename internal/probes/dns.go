package probes

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// DNSLookupAll walks the common record types for the target and prints
// whatever resolves. The probe succeeds if at least one address record
// exists; missing MX/NS/TXT records are normal and only noted.
func (s *Suite) DNSLookupAll(target string) Report {
	host := hostOf(target)
	if host == "" {
		return failf("dns: empty target")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DNSTimeout)
	defer cancel()

	r := net.DefaultResolver

	var b strings.Builder
	fmt.Fprintf(&b, "DNS records for %s\n", host)

	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		fmt.Fprintf(&b, "A/AAAA: lookup failed: %v\n", err)
		return Report{Success: false, Text: b.String()}
	}
	for _, a := range addrs {
		if a.IP.To4() != nil {
			fmt.Fprintf(&b, "A: %s\n", a.IP)
		} else {
			fmt.Fprintf(&b, "AAAA: %s\n", a.IP)
		}
	}

	if cname, err := r.LookupCNAME(ctx, host); err == nil && strings.TrimSuffix(cname, ".") != host {
		fmt.Fprintf(&b, "CNAME: %s\n", cname)
	}

	if mxs, err := r.LookupMX(ctx, host); err == nil && len(mxs) > 0 {
		for _, mx := range mxs {
			fmt.Fprintf(&b, "MX: %s (pref %d)\n", mx.Host, mx.Pref)
		}
	} else {
		b.WriteString("MX: none\n")
	}

	if nss, err := r.LookupNS(ctx, host); err == nil && len(nss) > 0 {
		for _, ns := range nss {
			fmt.Fprintf(&b, "NS: %s\n", ns.Host)
		}
	} else {
		b.WriteString("NS: none\n")
	}

	if txts, err := r.LookupTXT(ctx, host); err == nil && len(txts) > 0 {
		for _, txt := range txts {
			fmt.Fprintf(&b, "TXT: %s\n", txt)
		}
	}

	return Report{Success: len(addrs) > 0, Text: b.String()}
}
