package httpmiddleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"tikdl.local/gee"
)

var rateLimitMemberSeq uint64

// Allower is satisfied by *ratelimit.Limiter.
type Allower interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, member string) (bool, time.Duration, error)
}

// ClientIP returns the address used for per-client limits.
//
// Forwarding headers are honored only when the peer is a trusted proxy
// (loopback or private network), otherwise any client could spoof
// X-Forwarded-For and dodge the limit.
func ClientIP(req *http.Request) string {
	remoteHost, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		remoteHost = req.RemoteAddr
	}
	remoteIP := net.ParseIP(remoteHost)

	if remoteIP == nil || !isTrustedProxy(remoteIP) {
		return remoteHost
	}

	if cf := strings.TrimSpace(req.Header.Get("CF-Connecting-IP")); cf != "" {
		if net.ParseIP(cf) != nil {
			return cf
		}
	}

	// the first X-Forwarded-For entry is the original client
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		xff = strings.TrimSpace(xff)
		if net.ParseIP(xff) != nil {
			return xff
		}
	}

	if xrip := strings.TrimSpace(req.Header.Get("X-Real-IP")); xrip != "" {
		if net.ParseIP(xrip) != nil {
			return xrip
		}
	}

	return remoteHost
}

func isTrustedProxy(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}

	ip4 := ip.To4()
	if ip4 == nil {
		// IPv6 ULA fc00::/7
		return len(ip) == net.IPv6len && (ip[0]&0xfe) == 0xfc
	}
	if ip4[0] == 10 {
		return true
	}
	if ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31 {
		return true
	}
	if ip4[0] == 192 && ip4[1] == 168 {
		return true
	}
	return false
}

// RateLimit allows limit requests per client IP within window. A nil
// limiter disables the check; limiter errors fail open. Rejected requests
// get a JSON 429.
func RateLimit(limiter Allower, prefix string, limit int, window time.Duration) gee.HandlerFunc {
	return RateLimitWith(limiter, prefix, limit, window, nil)
}

// RateLimitWith is RateLimit with a custom answer for rejected requests.
// denied runs after Retry-After is set and the chain is aborted after it.
func RateLimitWith(limiter Allower, prefix string, limit int, window time.Duration, denied gee.HandlerFunc) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if limiter == nil {
			ctx.Next()
			return
		}

		key := "rl:" + prefix + ":" + ClientIP(ctx.Req)

		// members must be unique per request or ZADD overwrites them, and
		// UnixNano alone can repeat on coarse clocks
		member := strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + strconv.FormatUint(atomic.AddUint64(&rateLimitMemberSeq, 1), 10)
		rlCtx, cancel := context.WithTimeout(ctx.Context(), 50*time.Millisecond)
		defer cancel()
		allowed, retryAfter, err := limiter.Allow(rlCtx, key, limit, window, member)
		if err != nil {
			slog.ErrorContext(ctx.Context(), "rate limit check failed", "err", err, "key", key)
			ctx.Next()
			return
		}
		if !allowed {
			if retryAfter > 0 {
				secs := int64((retryAfter + time.Second - 1) / time.Second)
				ctx.SetHeader("Retry-After", strconv.FormatInt(secs, 10))
			}
			if denied != nil {
				denied(ctx)
				ctx.Abort()
				return
			}
			ctx.AbortWithError(http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		ctx.Next()
	}
}
