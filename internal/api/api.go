package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/foodgram/internal/api/auth"
	"github.com/jon4hz/foodgram/internal/api/handler"
	"github.com/jon4hz/foodgram/internal/api/models"
	"github.com/jon4hz/foodgram/internal/config"
	"github.com/jon4hz/foodgram/internal/foodgram"
)

// Server is the HTTP front of the Foodgram service.
type Server struct {
	cfg        *config.Config
	ginEngine  *gin.Engine
	httpServer *http.Server
	svc        *foodgram.Service
	mediaDir   string
	oidc       *auth.OIDCProvider
}

// Option configures optional parts of the server.
type Option func(*Server)

// WithOIDC offers browser sign in through an OpenID Connect provider.
func WithOIDC(p *auth.OIDCProvider) Option {
	return func(s *Server) { s.oidc = p }
}

// New builds the server and registers every route.
func New(cfg *config.Config, svc *foodgram.Service, mediaDir string, debug bool, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if svc == nil {
		return nil, fmt.Errorf("service is required")
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		svc:       svc,
		mediaDir:  mediaDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ginEngine.Use(gin.Recovery(), requestLogger())
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{models.MediaPrefix})))
	s.setupSession()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   strings.HasPrefix(s.cfg.ServerURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(auth.SessionName, store))
}

func (s *Server) setupRoutes() {
	h := handler.New(s.svc, s.cfg)

	s.ginEngine.Static(strings.TrimSuffix(models.MediaPrefix, "/"), s.mediaDir)

	api := s.ginEngine.Group("/api")
	api.Use(auth.Middleware(s.svc))
	requireAuth := auth.RequireAuth()
	requireToken := auth.RequireToken()

	api.POST("/auth/token/login/", h.Login)
	api.POST("/auth/token/logout/", requireAuth, h.Logout)
	if s.oidc != nil {
		api.GET("/auth/oidc/login/", s.oidc.Login)
		api.GET("/auth/oidc/callback/", s.oidc.Callback)
	}

	api.GET("/tags/", h.ListTags)
	api.GET("/tags/:id/", h.GetTag)
	api.GET("/ingredients/", h.ListIngredients)
	api.GET("/ingredients/:id/", h.GetIngredient)

	recipes := api.Group("/recipes")
	recipes.GET("/", h.ListRecipes)
	recipes.POST("/", requireAuth, h.CreateRecipe)
	recipes.GET("/download_shopping_cart/", requireAuth, h.DownloadShoppingCart)
	recipes.GET("/:id/", h.GetRecipe)
	recipes.PATCH("/:id/", requireAuth, h.UpdateRecipe)
	recipes.DELETE("/:id/", requireAuth, h.DeleteRecipe)
	recipes.GET("/:id/favorite/", requireToken, h.AddFavorite)
	recipes.POST("/:id/favorite/", requireAuth, h.AddFavorite)
	recipes.DELETE("/:id/favorite/", requireAuth, h.RemoveFavorite)
	recipes.GET("/:id/shopping_cart/", requireToken, h.AddToCart)
	recipes.POST("/:id/shopping_cart/", requireAuth, h.AddToCart)
	recipes.DELETE("/:id/shopping_cart/", requireAuth, h.RemoveFromCart)

	users := api.Group("/users")
	users.GET("/", h.ListUsers)
	users.POST("/", h.Register)
	users.GET("/me/", requireAuth, h.Me)
	users.POST("/set_password/", requireAuth, h.SetPassword)
	users.GET("/subscriptions/", requireAuth, h.Subscriptions)
	users.GET("/:id/", h.GetUser)
	users.GET("/:id/subscribe/", requireToken, h.Subscribe)
	users.POST("/:id/subscribe/", requireAuth, h.Subscribe)
	users.DELETE("/:id/subscribe/", requireAuth, h.Unsubscribe)

	if s.cfg.WebPush != nil && s.cfg.WebPush.Enabled {
		api.GET("/push/public_key/", h.PushPublicKey)
		users.POST("/me/push_subscriptions/", requireAuth, h.AddPushSubscription)
		users.DELETE("/me/push_subscriptions/", requireAuth, h.RemovePushSubscription)
	}
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	log.Info("starting API server", "listen", s.cfg.Listen)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// requestLogger logs every request with a level matching its status.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		}
		if user := auth.CurrentUser(c); user != nil {
			fields = append(fields, "user_id", user.ID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}
