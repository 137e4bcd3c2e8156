package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	_ "github.com/adilzhan/auth-core/docs"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gintrace.Middleware("auth-core"))
	r.Use(RequestID())
	r.Use(Observe())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/.well-known/jwks.json", h.JWKS)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a := r.Group("/api/auth")
	{
		a.POST("/register", h.Register)
		a.POST("/login", h.Login)
		a.POST("/refresh", h.Refresh)
		a.GET("/oauth/:provider/url", h.OAuthURL)
		a.GET("/oauth/:provider/callback", h.OAuthCallback)

		authed := a.Group("", AuthRequired(h.Tokens))
		{
			authed.POST("/logout", h.Logout)
			authed.POST("/logout-all", h.LogoutAll)
			authed.GET("/me", h.Me)
			authed.GET("/sessions", h.Sessions)
		}
	}

	return r
}
