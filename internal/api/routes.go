package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campus/internal/auth"
	"campus/internal/httpmiddleware"
	"campus/internal/logger"
	"campus/internal/metrics"
)

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	registerValidators()
	h := &Handler{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger("/healthz", "/metrics"))
	r.Use(metrics.GinMiddleware())
	r.Use(corsMiddleware(d.CORSOrigins))
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.health)

	limit := httpmiddleware.NewLimiter(d.RateLimitPerMin/4, d.RateLimitPerMin).GinMiddleware()
	admin := auth.RequireRole(auth.RoleAdmin)

	api := r.Group("/api", auth.Authenticate(d.Signer))
	{
		api.POST("/auth/register", limit, h.register)
		api.POST("/auth/login", limit, h.login)
		api.POST("/auth/refresh", limit, h.refresh)
		api.GET("/auth/me", h.me)

		api.GET("/categories", h.listCategories)
		api.GET("/posts", h.listPosts)
		api.GET("/posts/:slug", h.getPost)
		api.GET("/posts/:slug/like", h.likeStatus)
		api.POST("/posts/:slug/like", limit, h.toggleLike)
		api.GET("/posts/:slug/comments", h.listComments)
		api.POST("/posts/:slug/comments", limit, h.createComment)

		api.POST("/contact", limit, h.submitContact)

		api.POST("/bootcamp", limit, h.enroll)
		api.GET("/bootcamp", admin, h.listEnrollments)
		api.PATCH("/bootcamp", admin, h.updateEnrollment)
		api.POST("/bootcamp/fix-courses", admin, h.fixCourses)
		api.GET("/bootcamp/export", admin, h.exportEnrollments)

		api.GET("/attendance/:sessionId", h.getSession)
		api.POST("/attendance/:sessionId", limit, h.submitAttendance)

		api.POST("/sponsors", limit, h.applySponsor)
		api.GET("/banners", h.liveBanners)
	}

	adm := api.Group("/admin", admin)
	{
		adm.POST("/uploads", h.upload)

		adm.POST("/categories", h.createCategory)
		adm.DELETE("/categories/:id", h.deleteCategory)

		adm.GET("/posts", h.adminListPosts)
		adm.POST("/posts", h.createPost)
		adm.PUT("/posts/:id", h.updatePost)
		adm.DELETE("/posts/:id", h.deletePost)

		adm.GET("/comments", h.adminListComments)
		adm.PATCH("/comments/:id", h.moderateComment)
		adm.DELETE("/comments/:id", h.deleteComment)

		adm.GET("/contacts", h.listContacts)
		adm.GET("/contacts/recent", h.recentContacts)

		adm.POST("/attendance", h.createSession)
		adm.GET("/attendance", h.listSessions)
		adm.PATCH("/attendance/:id", h.setSessionActive)
		adm.GET("/attendance/:id/responses", h.sessionResponses)

		adm.GET("/sponsors", h.listSponsors)
		adm.PATCH("/sponsors/:id", h.updateSponsor)

		adm.GET("/banners", h.listBanners)
		adm.POST("/banners", h.createBanner)
		adm.PATCH("/banners/:id", h.updateBanner)
		adm.DELETE("/banners/:id", h.deleteBanner)
	}

	return r
}

func (h *Handler) health(c *gin.Context) {
	ctx := c.Request.Context()
	dbHealthy := h.DB.Healthy(ctx)
	status := http.StatusOK
	body := gin.H{"status": "ok", "db": dbHealthy}
	if h.Redis != nil {
		redisHealthy := h.Redis.Healthy(ctx)
		body["redis"] = redisHealthy
		dbHealthy = dbHealthy && redisHealthy
	}
	if !dbHealthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        24 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
