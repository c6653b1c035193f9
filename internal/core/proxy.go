package core

// proxy.go
import (
	"net"
	"net/http"
	"strings"
)

// ParseTrustedProxies разбирает список IP/CIDR. Одиночный IP превращается в /32 (/128).
// Пустые и нераспознанные элементы пропускаются.
func ParseTrustedProxies(list []string) []*net.IPNet {
	trusted := make([]*net.IPNet, 0, len(list))
	for _, raw := range list {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, ipNet, err := net.ParseCIDR(raw); err == nil {
			trusted = append(trusted, ipNet)
			continue
		}
		if ip := net.ParseIP(raw); ip != nil {
			bits := 8 * len(ip)
			trusted = append(trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
		}
	}
	return trusted
}

// TrustedProxy пропускает только запросы от доверенных прокси и выставляет
// схему по X-Forwarded-Proto (OWASP A05).
func TrustedProxy(trustedIPs []string) func(http.Handler) http.Handler {
	trusted := ParseTrustedProxies(trustedIPs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			ip := net.ParseIP(host)
			if ip == nil {
				Fail(w, r, BadRequest("неверный адрес клиента", err))
				return
			}

			if !containsIP(trusted, ip) {
				Fail(w, r, Forbidden("недоверенный прокси"))
				return
			}

			if strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https") {
				r.URL.Scheme = "https"
			} else {
				r.URL.Scheme = "http"
			}
			next.ServeHTTP(w, r)
		})
	}
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
