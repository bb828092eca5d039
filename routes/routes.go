package routes

import (
	"net/http"
	"time"

	"github.com/ABFerraz00/mandacafe/controllers"
	"github.com/ABFerraz00/mandacafe/middlewares"
	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the long-lived components the router hands to controllers.
// Nil limiters are replaced with the default login and admin windows.
// Forwarding headers are honoured only from TrustedProxies.
type Dependencies struct {
	Logger         *zap.Logger
	Menu           *services.MenuService
	Auth           *services.AuthService
	Authenticator  services.Authenticator
	Metrics        *services.MetricsAggregator
	Hub            *services.MenuHub
	Images         services.ImageStore
	LoginLimiter   *services.RateLimiter
	AdminLimiter   *services.RateLimiter
	AuthStrategy   string
	CORSOrigin     string
	TrustedProxies []string
	Environment    string
	Development    bool
}

func SetupRouter(d Dependencies) *gin.Engine {
	if d.LoginLimiter == nil {
		d.LoginLimiter = services.NewRateLimiter(services.LoginAttemptLimit, services.RateLimitWindow)
	}
	if d.AdminLimiter == nil {
		d.AdminLimiter = services.NewRateLimiter(services.AdminRequestLimit, services.RateLimitWindow)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		d.Logger.Error("invalid trusted proxies, forwarding headers ignored", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		middlewares.RequestID(),
		middlewares.Logger(d.Logger),
		middlewares.Metrics(d.Metrics),
		middlewares.Recovery(d.Logger, d.Development),
		middlewares.CORS(d.CORSOrigin),
		middlewares.SecurityMonitor(services.NewSecurityMonitor(d.Logger, d.Metrics)),
	)

	menuCtl := controllers.NewMenuController(d.Menu, d.Development)
	adminCtl := controllers.NewAdminController(d.Menu, d.Hub, d.Images, d.Logger, d.Development)
	authCtl := controllers.NewAuthController(d.Auth, d.AuthStrategy, d.Logger)
	systemCtl := controllers.NewSystemController(d.Metrics, d.Menu, d.Environment, d.Logger)
	realtimeCtl := controllers.NewRealtimeController(d.Hub, d.CORSOrigin, d.Logger)

	authenticate := middlewares.Authenticate(d.Authenticator)
	adminOnly := middlewares.RequireRoles(services.RoleAdmin)

	r.GET("/health", systemCtl.Liveness)

	api := r.Group("/api")
	{
		api.GET("/status", systemCtl.Status)
		api.GET("/health", systemCtl.Health)
		api.GET("/metrics", systemCtl.GetMetrics)
		api.POST("/metrics/reset", authenticate, adminOnly, systemCtl.ResetMetrics)
	}

	// Public menu
	menu := api.Group("/cardapio")
	{
		menu.GET("", menuCtl.GetMenu)
		menu.GET("/categorias", menuCtl.GetCategories)
		menu.GET("/categoria/:nome", menuCtl.GetDishesByCategory)
		menu.GET("/prato/:id", menuCtl.GetDish)
		menu.GET("/ws", realtimeCtl.MenuWS)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/login",
			middlewares.RateLimit(d.LoginLimiter, d.Metrics, "too many login attempts, try again later"),
			authCtl.Login,
		)
		auth.GET("/me", authenticate, authCtl.Me)
		auth.POST("/logout", authenticate, authCtl.Logout)
		auth.GET("/users", authenticate, adminOnly, authCtl.Users)
		auth.GET("/status", middlewares.OptionalAuth(d.Authenticator), authCtl.Status)
	}

	admin := api.Group("/admin")
	admin.Use(
		middlewares.RateLimit(d.AdminLimiter, d.Metrics, "too many requests, try again later"),
		authenticate,
		middlewares.RequireRoles(services.AdminRoles...),
	)
	{
		admin.GET("/pratos", adminCtl.ListDishes)
		admin.GET("/pratos/:id", adminCtl.GetDish)
		admin.POST("/pratos", adminCtl.CreateDish)
		admin.PUT("/pratos/:id", adminCtl.UpdateDish)
		admin.PATCH("/pratos/:id/disponibilidade", adminCtl.ToggleAvailability)
		admin.PUT("/pratos/:id/imagem", adminCtl.UploadDishImage)
		admin.GET("/categorias", adminCtl.ListCategories)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "route not found",
			"path":      c.Request.URL.Path,
			"timestamp": time.Now(),
		})
	})

	return r
}
