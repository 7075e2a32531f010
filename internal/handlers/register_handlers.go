package handlers

import (
	"net/http"
	"time"

	"github.com/SscSPs/storefront_app/cmd/docs"
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/metrics"
	"github.com/SscSPs/storefront_app/internal/middleware"
	"github.com/SscSPs/storefront_app/internal/platform/config"
	"github.com/SscSPs/storefront_app/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// oauthSources are the providers a handshake route is mounted for. Sources without
// a configured strategy redirect to the failure route.
var oauthSources = []domain.Source{domain.SourceFacebook, domain.SourceInstagram, domain.SourceGoogle}

// Observability carries the process-wide collectors handed to the router.
type Observability struct {
	Metrics   metrics.MetricsCollector
	Gatherer  prometheus.Gatherer
	Analytics *utils.PosthogClientWrapper
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	gate *middleware.TrustGate,
	obs Observability,
) {
	registerValidators()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.PosthogMiddleware(obs.Analytics))

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if obs.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(obs.Gatherer)))
	}

	captcha := middleware.RequireCaptcha(services.Captcha, cfg.CaptchaThreshold, obs.Metrics)

	api := r.Group("/api")
	registerAuthRoutes(api, cfg, services, gate, captcha)
	registerOAuthRoutes(api, cfg, services.OAuth, gate)
	registerMeRoutes(api, cfg, services.Auth, gate)
	registerPaymentRoutes(api, services.Payments, gate, captcha)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// guarded appends handlers to the gate chain selected by opts.
func guarded(gate *middleware.TrustGate, opts middleware.GuardOptions, handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	return append(gate.Guard(opts), handlers...)
}

var (
	public     = middleware.GuardOptions{Public: true}
	standard   = middleware.GuardOptions{}
	anySession = middleware.GuardOptions{Kinds: []domain.TokenKind{domain.TokenStandard, domain.TokenTemporary}}
	temporary  = middleware.GuardOptions{Kinds: []domain.TokenKind{domain.TokenTemporary}}
	// emailLink routes are opened from a mail client, so they carry foreign or no referers.
	emailLink = middleware.GuardOptions{Navigation: true, Kinds: []domain.TokenKind{domain.TokenTemporary}}
)

func registerAuthRoutes(api *gin.RouterGroup, cfg *config.Config, services *portssvc.ServiceContainer, gate *middleware.TrustGate, captcha gin.HandlerFunc) {
	h := NewAuthHandler(services.Auth, cfg)

	auth := api.Group("/auth")
	{
		auth.GET("/", guarded(gate, standard, h.Check)...)
		auth.POST("/register", guarded(gate, public, captcha, h.Register)...)
		auth.POST("/login", guarded(gate, public, captcha, h.Login)...)
		auth.POST("/complete-profile", guarded(gate, standard, captcha, h.CompleteProfile)...)
		auth.GET("/logout", guarded(gate, public, h.Logout)...)
		auth.POST("/email-confirmation", guarded(gate, anySession, h.ResendConfirmation)...)
		auth.GET("/email-confirmation/:token", guarded(gate, emailLink, h.Confirm)...)
		auth.POST("/reset-password", guarded(gate, public, h.RequestPasswordReset)...)
		auth.GET("/reset-password/:token", guarded(gate, emailLink, h.OpenPasswordReset)...)
		auth.PUT("/reset-password", guarded(gate, temporary, h.CompletePasswordReset)...)
	}
}

func registerOAuthRoutes(api *gin.RouterGroup, cfg *config.Config, oauth portssvc.OAuthSvcFacade, gate *middleware.TrustGate) {
	h := NewOAuthHandler(oauth, cfg)
	handshake := middleware.GuardOptions{Public: true, Navigation: true}

	auth := api.Group("/auth")
	for _, source := range oauthSources {
		auth.GET("/"+string(source), guarded(gate, handshake, h.Begin(source))...)
		auth.GET("/"+string(source)+"/callback", guarded(gate, handshake, h.Callback(source))...)
	}
}

func registerMeRoutes(api *gin.RouterGroup, cfg *config.Config, auth portssvc.AuthSvcFacade, gate *middleware.TrustGate) {
	h := NewMeHandler(auth, cfg)
	viewProfile := middleware.GuardOptions{Permissions: []domain.Permission{domain.PermissionViewProfile}}

	me := api.Group("/me")
	{
		me.GET("", guarded(gate, viewProfile, h.GetProfile)...)
		me.POST("", guarded(gate, standard, h.AddValue)...)
		me.DELETE("", guarded(gate, standard, h.DeleteAccount)...)
		me.POST("/email", guarded(gate, standard, h.ChangeEmail)...)
	}
	api.GET("/leaderboard", guarded(gate, standard, h.Leaderboard)...)
}

func registerPaymentRoutes(api *gin.RouterGroup, payments portssvc.PaymentSvc, gate *middleware.TrustGate, captcha gin.HandlerFunc) {
	h := NewPaymentHandler(payments)
	purchase := middleware.GuardOptions{Permissions: []domain.Permission{domain.PermissionPurchase}}

	api.POST("/payment/charge", guarded(gate, purchase, captcha, h.Charge)...)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
