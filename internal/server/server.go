package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"jwbindex/internal/catalog"
	"jwbindex/internal/logging"
	"jwbindex/internal/output"
	"jwbindex/internal/services"
)

const rootsKey = "roots"

// CrawlFunc produces a fresh category tree.
type CrawlFunc func(ctx context.Context) ([]*catalog.Category, error)

// Server serves the catalog API and pages.
type Server struct {
	bind    string
	logger  *slog.Logger
	crawl   CrawlFunc
	cache   *cache.Cache
	crawlMu sync.Mutex
	crawled time.Time
	onFlush func()

	engine   *gin.Engine
	listener net.Listener
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithFlushHook registers fn to run on an explicit refresh, before the tree
// is crawled again. Expiry-driven crawls do not call it.
func WithFlushHook(fn func()) Option {
	return func(s *Server) {
		s.onFlush = fn
	}
}

// New builds a server listening on bind. refresh is how long a crawl result
// is served before the next request triggers a new crawl.
func New(bind string, crawl CrawlFunc, refresh time.Duration, logger *slog.Logger, opts ...Option) (*Server, error) {
	if crawl == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "crawl function required", nil)
	}
	if refresh <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "refresh interval must be positive", nil)
	}
	s := &Server{
		bind:   strings.TrimSpace(bind),
		logger: logging.NewComponentLogger(logger, "server"),
		crawl:  crawl,
		cache:  cache.New(refresh, 2*refresh),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr reports the bound address once Run has started listening.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "server", "listen", "bind "+s.bind, err)
	}
	s.listener = listener
	s.logger.Info("server listening", logging.String("address", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("server shutdown incomplete", logging.Error(err))
	}
	s.logger.Info("server stopped")
	return nil
}

// Refresh discards the cached tree so the next request crawls again, and
// runs the flush hook.
func (s *Server) Refresh() {
	s.cache.Delete(rootsKey)
	if s.onFlush != nil {
		s.onFlush()
	}
}

// roots returns the cached tree, crawling when it has expired. Crawls are
// serialized so a burst of requests after expiry triggers a single crawl.
func (s *Server) roots(ctx context.Context) ([]*catalog.Category, error) {
	if cached, ok := s.cache.Get(rootsKey); ok {
		return cached.([]*catalog.Category), nil
	}
	s.crawlMu.Lock()
	defer s.crawlMu.Unlock()
	if cached, ok := s.cache.Get(rootsKey); ok {
		return cached.([]*catalog.Category), nil
	}

	started := time.Now()
	roots, err := s.crawl(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(rootsKey, roots, cache.DefaultExpiration)
	s.crawled = time.Now()
	s.logger.Info("catalog refreshed",
		logging.Int("roots", len(roots)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return roots, nil
}

func (s *Server) crawledAt() time.Time {
	s.crawlMu.Lock()
	defer s.crawlMu.Unlock()
	return s.crawled
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/healthz", s.handleHealth)
	api := engine.Group("/api")
	api.GET("/categories", s.handleCategories)
	api.GET("/categories/:key", s.handleCategory)
	api.GET("/media", s.handleMedia)
	api.POST("/refresh", s.handleRefresh)

	engine.GET("/", s.handleIndexPage)
	engine.GET("/categories/:key", s.handleCategoryPage)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Debug("request served",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCategories(c *gin.Context) {
	roots, ok := s.loadRoots(c)
	if !ok {
		return
	}
	if roots == nil {
		roots = []*catalog.Category{}
	}
	c.JSON(http.StatusOK, roots)
}

func (s *Server) handleCategory(c *gin.Context) {
	roots, ok := s.loadRoots(c)
	if !ok {
		return
	}
	key := c.Param("key")
	cat, found := catalog.Find(roots, key)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("category %q not found", key)})
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) handleMedia(c *gin.Context) {
	roots, ok := s.loadRoots(c)
	if !ok {
		return
	}
	media := catalog.AllMedia(roots)
	if media == nil {
		media = []*catalog.Media{}
	}
	c.JSON(http.StatusOK, media)
}

func (s *Server) handleRefresh(c *gin.Context) {
	s.Refresh()
	roots, ok := s.loadRoots(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"roots":      len(roots),
		"media":      len(catalog.AllMedia(roots)),
		"crawled_at": s.crawledAt().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleIndexPage(c *gin.Context) {
	roots, ok := s.loadRoots(c)
	if !ok {
		return
	}
	s.renderPage(c, output.IndexPage(roots, categoryHref))
}

func (s *Server) handleCategoryPage(c *gin.Context) {
	roots, ok := s.loadRoots(c)
	if !ok {
		return
	}
	cat, found := catalog.Find(roots, c.Param("key"))
	if !found {
		c.String(http.StatusNotFound, "category not found")
		return
	}
	page := output.CategoryPage(cat, categoryHref, func(m *catalog.Media) string { return m.URL })
	page.IndexHref = "/"
	s.renderPage(c, page)
}

func (s *Server) renderPage(c *gin.Context, page output.Page) {
	var buf bytes.Buffer
	if err := output.RenderPage(&buf, page); err != nil {
		s.logger.Error("page render failed", logging.Error(err))
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// loadRoots fetches the tree for a request, answering with an error status
// when the crawl fails.
func (s *Server) loadRoots(c *gin.Context) ([]*catalog.Category, bool) {
	roots, err := s.roots(c.Request.Context())
	if err != nil {
		logging.WarnWithContext(s.logger, "catalog crawl failed", "crawl_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "request answered with an error"),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return nil, false
	}
	return roots, true
}

func categoryHref(key string) string {
	return "/categories/" + url.PathEscape(key)
}
