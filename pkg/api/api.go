// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/designo-group/secret-santa/pkg/apiresponses"
	"github.com/designo-group/secret-santa/pkg/config"
	"github.com/designo-group/secret-santa/pkg/metrics"
	"github.com/designo-group/secret-santa/pkg/system"
)

const shutdownTimeout = 10 * time.Second

type APIController interface {
	BasePath() string
	Register(rg *gin.RouterGroup) error
	Handlers() []gin.HandlerFunc
}

type Server struct {
	gin    *gin.Engine
	config config.Config
	log    *zap.SugaredLogger
}

func NewServer(log *zap.Logger, cfg config.Config, debug bool) (*Server, error) {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	sugar := log.Sugar().Named("api")

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	engine.Use(
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.CustomRecoveryWithZap(log, true, func(c *gin.Context, _ any) {
			apiresponses.RespondInternalError(c)
		}),
		system.RequestLogger(sugar),
		secure.New(secureConfig(cfg.Server, debug)),
		sessions.Sessions(cfg.Session.Name, NewSessionStore(cfg.Session)),
		errorHandler(sugar),
	)

	if debug {
		engine.Use(
			cors.New(cors.Config{
				AllowOrigins:     []string{"http://localhost:5173", "http://127.0.0.1:8080"},
				AllowMethods:     []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:     []string{"Origin", "Content-Type"},
				AllowCredentials: true,
				MaxAge:           12 * time.Hour,
			}),
		)
	}

	if err := loadViews(engine, cfg.Paths.Views); err != nil {
		return nil, err
	}
	engine.Use(
		ServeStatic("/", cfg.Paths.Static),
		ServeStatic("/images", cfg.Paths.Images),
	)

	s := &Server{
		gin:    engine,
		config: cfg,
		log:    sugar,
	}

	engine.Any("/health", s.health)
	engine.Any("/health/*rest", s.health)
	engine.GET("/robots.txt", s.robots)
	engine.GET("/", s.index)
	if cfg.Server.MetricsEnabled {
		engine.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))
	}
	engine.NoRoute(s.notFound)

	return s, nil
}

func secureConfig(cfg config.Server, debug bool) secure.Config {
	return secure.Config{
		SSLRedirect:             cfg.EnableHTTPS,
		SSLProxyHeaders:         map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:              15552000,
		STSIncludeSubdomains:    true,
		CustomFrameOptionsValue: "SAMEORIGIN",
		ContentTypeNosniff:      true,
		BrowserXssFilter:        true,
		IsDevelopment:           debug,
	}
}

// NewSessionStore returns a cookie store whose values are signed and
// encrypted with keys derived from the session secret.
func NewSessionStore(cfg config.Session) sessions.Store {
	authKey := sha256.Sum256([]byte("auth:" + cfg.Secret))
	encKey := sha256.Sum256([]byte("enc:" + cfg.Secret))
	store := cookie.NewStore(authKey[:], encKey[:])
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
	return store
}

func loadViews(engine *gin.Engine, dir string) error {
	pattern := filepath.Join(dir, "*.html")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("invalid views directory %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no views found in %s", dir)
	}
	engine.SetFuncMap(sprig.HtmlFuncMap())
	engine.LoadHTMLFiles(matches...)
	return nil
}

// errorHandler turns errors attached with c.Error into the generic 500
// response unless the handler already wrote one.
func errorHandler(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		system.GetReqLogger(c, log).Errorw("Request failed", "error", c.Errors.String())
		if !c.Writer.Written() {
			apiresponses.RespondInternalError(c)
		}
	}
}

func (s *Server) RegisterAll(controllers []APIController) error {
	r := s.gin.Group("api")
	for _, c := range controllers {
		if err := c.Register(r.Group(c.BasePath(), c.Handlers()...)); err != nil {
			return err
		}
	}
	return nil
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.ListenAddress,
		Handler:           s.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("Listening", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Infow("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) robots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /")
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"origin": s.config.Origin(),
	})
}

func (s *Server) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", gin.H{
		"origin": s.config.Origin(),
		"path":   c.Request.URL.Path,
	})
}
