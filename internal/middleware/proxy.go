package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies installs an IP extractor that honors X-Real-IP and
// X-Forwarded-For only when the direct peer is inside one of the given
// CIDRs. The per-IP rate limiter keys on c.RealIP(); without this, every
// client behind the reverse proxy would share the proxy's counter, and with
// unconditional header trust any client could spoof its way past the limit.
func TrustedProxies(e *echo.Echo, cidrs []string) {
	var nets []*net.IPNet
	for _, cidr := range cidrs {
		if _, network, err := net.ParseCIDR(cidr); err == nil {
			nets = append(nets, network)
		}
	}

	e.IPExtractor = func(req *http.Request) string {
		peer := peerIP(req.RemoteAddr)
		if !inAny(peer, nets) {
			// Direct connection from an untrusted address: headers are
			// client-controlled and ignored.
			return peer
		}

		if ip := strings.TrimSpace(req.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			// Leftmost entry is the originating client.
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}

		return peer
	}
}

// peerIP strips the port from a host:port RemoteAddr.
func peerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func inAny(ipStr string, nets []*net.IPNet) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
