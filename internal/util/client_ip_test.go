package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func requestFrom(remoteAddr, forwardedFor string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/stores/7/favorite", nil)
	r.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		r.Header.Set("X-Forwarded-For", forwardedFor)
	}
	return r
}

func TestClientIPDirectPeerIgnoresForwardedFor(t *testing.T) {
	// No trusted proxies: a client cannot relabel itself to dodge the
	// per-IP rate limit.
	r := requestFrom("203.0.113.9:51234", "10.0.0.1")
	if got := ClientIP(r, nil); got != "203.0.113.9" {
		t.Fatalf("ClientIP = %q, want the direct peer", got)
	}
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
	proxies, err := NewTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("parse proxies: %v", err)
	}

	// Proxy appended the real client; the nearest untrusted hop wins
	// even when the client forged earlier entries.
	r := requestFrom("10.0.0.1:443", "198.51.100.7, 203.0.113.9")
	if got := ClientIP(r, proxies); got != "203.0.113.9" {
		t.Fatalf("ClientIP = %q, want the nearest untrusted hop", got)
	}

	// A chain that is trusted end to end falls back to the peer.
	r = requestFrom("10.0.0.1:443", "10.0.0.2, 10.0.0.3")
	if got := ClientIP(r, proxies); got != "10.0.0.1" {
		t.Fatalf("ClientIP = %q, want the peer for all-trusted chain", got)
	}
}

func TestClientIPBareIPEntryAndIPv6(t *testing.T) {
	proxies, err := NewTrustedProxies([]string{"192.0.2.10"})
	if err != nil {
		t.Fatalf("parse proxies: %v", err)
	}
	r := requestFrom("192.0.2.10:8443", "2001:db8::7")
	if got := ClientIP(r, proxies); got != "2001:db8::7" {
		t.Fatalf("ClientIP = %q, want the forwarded IPv6 client", got)
	}
}

func TestNewTrustedProxiesRejectsGarbage(t *testing.T) {
	if _, err := NewTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Fatalf("expected parse error")
	}
	proxies, err := NewTrustedProxies([]string{"", "  "})
	if err != nil || proxies != nil {
		t.Fatalf("blank entries = (%v, %v), want (nil, nil)", proxies, err)
	}
}
