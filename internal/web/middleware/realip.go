package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/woimport/internal/logging"
)

// TrustedRealIP resolves the client address and stores it on the request
// context for logging.
//
// Forwarding headers (True-Client-IP, X-Real-IP, X-Forwarded-For) are read by
// chi's RealIP, but only for requests whose connection comes from one of
// trustedCIDRs. Any other request keeps its RemoteAddr. Either way the
// resulting host is attached with logging.WithClientIP, so request logs and
// the logs of runs started by the request carry client_ip.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	trusted := parseTrusted(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		tagged := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.WithClientIP(r.Context(), hostOf(r.RemoteAddr))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
		forwarded := chimw.RealIP(tagged)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isTrusted(net.ParseIP(hostOf(r.RemoteAddr)), trusted) {
				forwarded.ServeHTTP(w, r)
				return
			}
			tagged.ServeHTTP(w, r)
		})
	}
}

// parseTrusted parses proxy CIDRs. Config validation rejects bad entries, so
// anything left unparseable here is skipped with a warning.
func parseTrusted(cidrs []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("realip: invalid trusted proxy CIDR, skipping", "cidr", cidr, "error", err)
			continue
		}
		nets = append(nets, network)
	}
	return nets
}

// hostOf strips the port from a host:port address.
func hostOf(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, network := range trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
