// Package adminhttp is a thin, read-only status/metrics HTTP surface
// the engine exposes to its host application: open-socket counts, cache
// occupancy, and certificate-store state. It is explicitly not a GUI --
// just an operability endpoint.
//
// Built on gin.Engine with gin-contrib/secure security headers and a
// release-mode router setup in NewServer for the top-level
// status/metrics routes, and uses gorilla/mux for the single
// path-parameterized route (/cache/{mid}) mounted as a sub-handler via
// gin.WrapH -- gorilla/mux otherwise has no first-class call site in
// this module, so it is given exactly one job: the one route whose path
// carries a variable, where mux's named-variable extraction
// (mux.Vars) is the cleaner fit than gin's own param syntax.
package adminhttp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
)

// Reporter is implemented by whatever owns the engine's live state
// (socket registry, article cache, cert store) and supplies the counts
// this surface reports. Keeping it a narrow interface lets the HTTP
// layer stay decoupled from those concrete types.
type Reporter interface {
	OpenSocketCount() int
	CacheEntryCount() int
	CacheBytes() int64
	CacheMaxBytes() int64
	PinnedCertCount() int
	BlacklistedCertCount() int
}

// CacheLookup is the narrow slice of ArticleCache's contract the
// /cache/{mid} route needs.
type CacheLookup interface {
	Contains(mid string) bool
}

// Server is the admin HTTP surface.
type Server struct {
	Router    *gin.Engine
	reporter  Reporter
	cache     CacheLookup
	startTime time.Time
}

// New builds a Server reporting on reporter and cache, with standard
// security-header middleware applied.
func New(reporter Reporter, cache CacheLookup) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	s := &Server{
		Router:    router,
		reporter:  reporter,
		cache:     cache,
		startTime: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.Router.GET("/status", s.handleStatus)
	s.Router.GET("/metrics", s.handleMetrics)

	cacheRouter := mux.NewRouter()
	cacheRouter.HandleFunc("/cache/{mid}", s.handleCacheLookup).Methods(http.MethodGet)
	s.Router.Any("/cache/*rest", gin.WrapH(cacheRouter))
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":     int(time.Since(s.startTime).Seconds()),
		"open_sockets":       s.reporter.OpenSocketCount(),
		"cache_entries":      s.reporter.CacheEntryCount(),
		"cache_bytes":        s.reporter.CacheBytes(),
		"cache_max_bytes":    s.reporter.CacheMaxBytes(),
		"pinned_certs":       s.reporter.PinnedCertCount(),
		"blacklisted_certs":  s.reporter.BlacklistedCertCount(),
	})
}

// handleMetrics emits a small set of Prometheus-text-format gauges,
// hand-rendered the same way handleStatus's JSON is, just in a
// different wire format.
func (s *Server) handleMetrics(c *gin.Context) {
	c.String(http.StatusOK,
		"panengine_open_sockets %d\n"+
			"panengine_cache_entries %d\n"+
			"panengine_cache_bytes %d\n"+
			"panengine_pinned_certs %d\n"+
			"panengine_blacklisted_certs %d\n",
		s.reporter.OpenSocketCount(),
		s.reporter.CacheEntryCount(),
		s.reporter.CacheBytes(),
		s.reporter.PinnedCertCount(),
		s.reporter.BlacklistedCertCount(),
	)
}

func (s *Server) handleCacheLookup(w http.ResponseWriter, r *http.Request) {
	mid := mux.Vars(r)["mid"]
	if s.cache.Contains(mid) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "cached\n")
		return
	}
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "not cached\n")
}
