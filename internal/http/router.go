package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/contacts/internal/config"
	"github.com/geocoder89/contacts/internal/http/handlers"
	"github.com/geocoder89/contacts/internal/http/middlewares"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UsersBackend is everything the users routes and the session gate need from the credential store.
type UsersBackend interface {
	handlers.UsersStore
	middlewares.SessionUsers
}

type Sessions interface {
	handlers.SessionIssuer
	middlewares.TokenVerifier
}

type Deps struct {
	Cfg      config.Config
	Users    UsersBackend
	Contacts handlers.ContactsStore
	Sessions Sessions
	Queue    handlers.JobEnqueuer
	Avatars  handlers.AvatarStore
	// AvatarsDir is served under /avatars
	AvatarsDir string
	Prom       *observability.Prom
	// Gatherer backs /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
	Ping     func(ctx context.Context) error
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if d.Cfg.OTelEnabled {
		r.Use(otelgin.Middleware("contacts-api"))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	if d.AvatarsDir != "" {
		r.Static("/avatars", d.AvatarsDir)
	}

	authMw := middlewares.NewAuthMiddleware(d.Sessions, d.Users, d.Prom)
	requireAuth := authMw.RequireAuth()

	limit, window := d.Cfg.AuthRateLimit, d.Cfg.AuthRateWindow
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	authLimiter := middlewares.NewRateLimiter(limit, window)

	maxBody := middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes)
	requireJSON := middlewares.RequireJSON()

	users := handlers.NewUsersHandler(handlers.UsersHandlerDeps{
		Users:          d.Users,
		Sessions:       d.Sessions,
		Queue:          d.Queue,
		Avatars:        d.Avatars,
		Prom:           d.Prom,
		Log:            log,
		MaxUploadBytes: d.Cfg.MaxUploadBytes,
	})

	u := r.Group("/users")
	{
		u.PATCH("/verify/:token", users.Verify)

		// credential endpoints are limited per route and client IP
		credentials := u.Group("", authLimiter.Limit(middlewares.KeyByRouteAndIP), maxBody, requireJSON)
		credentials.POST("/signup", users.SignUp)
		credentials.POST("/login", users.Login)
		credentials.POST("/verify", users.ResendVerification)

		session := u.Group("", requireAuth)
		session.POST("/logout", users.Logout)
		session.GET("/current", users.Current)
		session.PATCH("/subscription", maxBody, requireJSON, users.UpdateSubscription)
		// multipart overhead on top of the file itself
		session.PATCH("/avatars", middlewares.MaxBodyBytes(d.Cfg.MaxUploadBytes+(1<<20)), middlewares.RequireContentType("multipart/form-data"), users.UpdateAvatar)
	}

	contacts := handlers.NewContactsHandler(d.Contacts)

	c := r.Group("/contacts", requireAuth)
	{
		c.GET("", contacts.ListContacts)
		c.GET("/:id", contacts.GetContactByID)
		c.POST("", maxBody, requireJSON, contacts.CreateContact)
		c.PUT("/:id", maxBody, requireJSON, contacts.UpdateContact)
		c.PATCH("/:id/favorite", maxBody, requireJSON, contacts.UpdateFavorite)
		c.DELETE("/:id", contacts.DeleteContact)
	}

	return r
}
