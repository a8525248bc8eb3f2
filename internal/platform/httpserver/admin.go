package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tikdl.local/internal/platform/config"
)

// BuildInfo is stamped into the binary with -ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// AdminMux serves /metrics, /version and, when enabled, pprof. It is meant
// for a loopback or private listener only.
func AdminMux(cfg config.Config, build BuildInfo) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      build.Version,
			"commit":       build.Commit,
			"build_time":   build.BuildTime,
			"go_version":   runtime.Version(),
		})
	})

	if cfg.PprofEnabled {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

// NewAdmin is New bound to AdminAddr.
func NewAdmin(cfg config.Config, handler http.Handler) *http.Server {
	srv := New(cfg, handler)
	srv.Addr = cfg.AdminAddr
	return srv
}
