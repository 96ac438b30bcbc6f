package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pondermatic/strategy11-challenge/src/metrics"
	"github.com/pondermatic/strategy11-challenge/src/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Routes holds what RegisterRoutes wires into the router
type Routes struct {
	RouteNamespace string
	APISecret      string
	AdminUser      string
	// AdminPassword enables the admin screen when set
	AdminPassword string
	Lang          string

	ChallengeService *service.ChallengeService
	Presenter        *service.TablePresenter
	Metrics          *metrics.Manager
}

func RegisterRoutes(ctx context.Context, router *gin.Engine, routes Routes) {
	SetMiddlewares(ctx, router)
	if routes.Metrics != nil {
		router.Use(routes.Metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(routes.Metrics.Handler()))
	}

	router.SetHTMLTemplate(LoadTemplates())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", HandleHealthCheck)

	challengeHandler := NewChallengeHandler(routes.ChallengeService)
	shortcodeHandler := NewShortcodeHandler(routes.ChallengeService, routes.Presenter, routes.Lang)

	namespace := "/" + strings.Trim(routes.RouteNamespace, "/")
	api := router.Group(namespace)
	{
		api.GET(service.ChallengeRoute, challengeHandler.GetChallenge)
		api.DELETE(service.ChallengeRoute+"/cache", OptionalSharedSecretMiddleware(routes.APISecret), challengeHandler.ClearCache)

		operator := api.Group(service.ChallengeRoute, SharedSecretMiddleware(routes.APISecret))
		operator.GET("/status", challengeHandler.GetStatus)
		operator.DELETE("/last-call", challengeHandler.ClearLastCall)
	}

	router.GET("/challenge", shortcodeHandler.Page)

	if routes.AdminPassword != "" {
		adminHandler := NewAdminHandler(routes.ChallengeService, routes.Presenter, routes.Lang)
		admin := router.Group("/admin", gin.BasicAuth(gin.Accounts{routes.AdminUser: routes.AdminPassword}))
		admin.GET("/challenge", adminHandler.Page)
	}
}
