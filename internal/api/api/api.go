package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"concerthub/cmd/middleware"
)

type Routers struct {
	Handler *Handler
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.GET("/concerts", r.Handler.ListPublishedConcerts)
	apiGroup.POST("/concerts", r.Handler.CreateConcert)

	authGroup := apiGroup.Group("", middleware.RequireUserEmail())
	authGroup.GET("/concerts/pending", r.Handler.ListPendingConcerts)
	authGroup.POST("/concerts/:id/validate", r.Handler.ValidateConcert)
	authGroup.POST("/concerts/:id/reject", r.Handler.RejectConcert)
	authGroup.GET("/organizer/concerts", r.Handler.ListOrganizerConcerts)
	authGroup.POST("/tickets/purchase", r.Handler.PurchaseTickets)
	authGroup.GET("/tickets", r.Handler.ListCustomerTickets)

	app.GET("/health", func(c *ginext.Context) {
		c.JSON(200, map[string]string{"status": "ok"})
	})

	return app
}
