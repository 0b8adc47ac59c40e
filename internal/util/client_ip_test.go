package util

import (
	"net/http/httptest"
	"net/netip"
	"testing"
)

func TestClientIP(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}

	tests := []struct {
		name    string
		remote  string
		xff     string
		xrip    string
		trusted *TrustedProxies
		want    string
	}{
		{name: "untrusted peer ignores headers", remote: "198.51.100.10:1234", xff: "203.0.113.5", xrip: "203.0.113.6", want: "198.51.100.10"},
		{name: "trusted peer uses forwarded for", remote: "10.0.0.20:1234", xff: "203.0.113.5", trusted: trusted, want: "203.0.113.5"},
		{name: "rightmost untrusted hop wins", remote: "10.0.0.20:1234", xff: "203.0.113.5, 198.51.100.7, 10.0.0.10", trusted: trusted, want: "198.51.100.7"},
		{name: "all trusted falls back to first hop", remote: "192.168.1.10:80", xff: "10.1.1.1, 10.2.2.2", trusted: trusted, want: "10.1.1.1"},
		{name: "real ip when no forwarded for", remote: "10.0.0.20:1234", xrip: "203.0.113.9", trusted: trusted, want: "203.0.113.9"},
		{name: "garbage hops are skipped", remote: "10.0.0.20:1234", xff: "not-an-ip, 203.0.113.5", trusted: trusted, want: "203.0.113.5"},
		{name: "peer without port", remote: "198.51.100.10", want: "198.51.100.10"},
		{name: "ipv4 mapped peer", remote: "[::ffff:10.0.0.20]:1234", xff: "203.0.113.5", trusted: trusted, want: "203.0.113.5"},
		{name: "unparsable peer returned as is", remote: "pipe", want: "pipe"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xrip != "" {
				req.Header.Set("X-Real-IP", tc.xrip)
			}
			if got := ClientIP(req, tc.trusted); got != tc.want {
				t.Fatalf("ClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewTrustedProxies(t *testing.T) {
	tp, err := NewTrustedProxies([]string{" ", ""})
	if err != nil || tp != nil {
		t.Fatalf("expected nil proxies for blank input, got %v err=%v", tp, err)
	}
	if _, err := NewTrustedProxies([]string{"10.0.0.0/33"}); err == nil {
		t.Fatalf("expected error for bad cidr")
	}
	if _, err := NewTrustedProxies([]string{"proxy.local"}); err == nil {
		t.Fatalf("expected error for hostname")
	}
	tp, err = NewTrustedProxies([]string{"2001:db8::/32"})
	if err != nil {
		t.Fatalf("ipv6 cidr: %v", err)
	}
	if !tp.Contains(netip.MustParseAddr("2001:db8::1")) || tp.Contains(netip.MustParseAddr("2001:db9::1")) {
		t.Fatalf("unexpected ipv6 membership")
	}
}
