// Package pprofserver exposes the runtime profiler behind loopback-or-basic-auth access.
package pprofserver

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"

	"service-parcel-platform/internal/logx"
)

// Config stores profiler access settings. Remote access needs both credentials.
type Config struct {
	User string
	Pass string
}

var profiles = []string{"heap", "goroutine", "allocs", "block", "mutex", "threadcreate"}

// Handler returns the profiler endpoints rooted at /debug/pprof/.
func Handler(cfg Config, logger logx.Logger) http.Handler {
	if logger == nil {
		logger = logx.Nop()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	for _, name := range profiles {
		mux.Handle("/debug/pprof/"+name, pprof.Handler(name))
	}
	return guard(mux, cfg, logger)
}

func guard(next http.Handler, cfg Config, logger logx.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isLoopback(r.RemoteAddr) || authorized(r, cfg) {
			next.ServeHTTP(w, r)
			return
		}
		logger.Warn("profiler access denied",
			logx.String("remote_addr", r.RemoteAddr),
			logx.String("path", r.URL.Path),
		)
		w.Header().Set("WWW-Authenticate", `Basic realm="pprof"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

func authorized(r *http.Request, cfg Config) bool {
	if cfg.User == "" || cfg.Pass == "" {
		return false
	}
	u, p, ok := r.BasicAuth()
	return ok && secureEq(u, cfg.User) && secureEq(p, cfg.Pass)
}

func secureEq(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func isLoopback(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	return ip != nil && ip.IsLoopback()
}
