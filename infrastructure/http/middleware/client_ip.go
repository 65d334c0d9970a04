package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
)

const clientIPKey ctxKey = "client_ip"

// ClientIPResolver decides which address a request came from. Forwarding
// headers are only read when the direct peer is a trusted proxy, so a client
// talking to the server directly cannot choose its own identity.
type ClientIPResolver struct {
	trusted []*net.IPNet
}

// NewClientIPResolver accepts CIDRs or bare IPs. With no entries every
// request is identified by its RemoteAddr.
func NewClientIPResolver(trustedProxies []string) (*ClientIPResolver, error) {
	res := &ClientIPResolver{}
	for _, p := range trustedProxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(p); err == nil {
			res.trusted = append(res.trusted, network)
			continue
		}
		ip := net.ParseIP(p)
		if ip == nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", p)
		}
		bits := 128
		if ip.To4() != nil {
			ip, bits = ip.To4(), 32
		}
		res.trusted = append(res.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return res, nil
}

// Resolve returns RemoteAddr unless it is a trusted proxy. Behind a trusted
// proxy the X-Forwarded-For chain is walked from the right and the first hop
// that is not itself a trusted proxy wins; X-Real-IP is the fallback.
func (c *ClientIPResolver) Resolve(r *http.Request) string {
	peer := remoteHost(r)
	if !c.isTrusted(peer) {
		return peer
	}

	hops := forwardedHops(r)
	for i := len(hops) - 1; i >= 0; i-- {
		if net.ParseIP(hops[i]) == nil {
			break
		}
		if !c.isTrusted(hops[i]) {
			return hops[i]
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil && !c.isTrusted(xri) {
		return xri
	}
	return peer
}

// Middleware stores the resolved address for ClientIP.
func (c *ClientIPResolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey, c.Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c *ClientIPResolver) isTrusted(addr string) bool {
	if c == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range c.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the address resolved by ClientIPResolver.Middleware, or
// the RemoteAddr host when the request did not pass through it.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedHops flattens every X-Forwarded-For header into one ordered list.
func forwardedHops(r *http.Request) []string {
	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(v, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}
