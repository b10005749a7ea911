// Package feedserver serves the generated feed files over HTTP.
package feedserver

import (
	"net/http"
	"os"
	"path/filepath"

	"sitemap-feeds/pkg/feedservice"
	"sitemap-feeds/pkg/logger"
	"sitemap-feeds/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// contentTypes maps each served file to its media type
var contentTypes = map[string]string{
	feedservice.RSSFile:          "application/rss+xml; charset=utf-8",
	feedservice.NewsSitemapFile:  "application/xml; charset=utf-8",
	feedservice.ImageSitemapFile: "application/xml; charset=utf-8",
}

// Server exposes the files of an output directory, a health check and the
// request metrics.
type Server struct {
	outputDir string
	log       *logger.Logger
	registry  *prometheus.Registry
	router    *gin.Engine
}

// New creates a server for outputDir
func New(outputDir string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		outputDir: outputDir,
		log:       log.With("component", "feedserver"),
		registry:  prometheus.NewRegistry(),
		router:    gin.New(),
	}

	httpMetrics := metrics.NewHTTPMetrics(s.registry)
	s.router.Use(gin.Recovery(), httpMetrics.Middleware())

	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	for name := range contentTypes {
		s.router.GET("/"+name, s.serveFile(name))
	}

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until the server fails
func (s *Server) Run(addr string) error {
	s.log.Info("serving feeds", "addr", addr, "dir", s.outputDir)
	return s.router.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "feedserve",
	})
}

func (s *Server) serveFile(name string) gin.HandlerFunc {
	path := filepath.Join(s.outputDir, name)
	contentType := contentTypes[name]

	return func(c *gin.Context) {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": name + " has not been generated"})
			return
		}
		if err != nil {
			s.log.Error("failed to read feed file", "path", path, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read " + name})
			return
		}
		c.Data(http.StatusOK, contentType, data)
	}
}
