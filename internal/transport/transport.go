package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticket-office/internal/entity"
	"ticket-office/internal/monitoring"
	"ticket-office/internal/transport/middleware"
)

func InitRoutes(authHandler *AuthHandler, userHandler *UserHandler, eventHandler *EventHandler, ticketHandler *TicketHandler) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))
	router.Use(monitoring.Instrument())

	// Account lifecycle
	router.POST("/register", authHandler.Register)
	router.GET("/activate/:code", authHandler.Activate)
	router.POST("/login", authHandler.Login)
	router.GET("/myself", authHandler.Myself)

	// OAuth device flow
	router.GET("/google-device-auth-step-1", authHandler.DeviceAuthStep1(entity.AuthMethodGoogle))
	router.POST("/google-device-auth-step-2", authHandler.DeviceAuthStep2(entity.AuthMethodGoogle))
	router.GET("/github-device-auth-step-1", authHandler.DeviceAuthStep1(entity.AuthMethodGithub))
	router.POST("/github-device-auth-step-2", authHandler.DeviceAuthStep2(entity.AuthMethodGithub))

	// User administration
	users := router.Group("/users")
	{
		users.GET("", userHandler.GetAllUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PATCH("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	// Events and resale allocations
	events := router.Group("/events")
	{
		events.POST("", eventHandler.CreateEvent)
		events.GET("", eventHandler.GetAllEvents)
		events.GET("/:id", eventHandler.GetEvent)
		events.PATCH("/:id", eventHandler.UpdateEvent)
		events.DELETE("/:id", eventHandler.DeleteEvent)
	}

	// Ticket sales
	tickets := router.Group("/sold-tickets")
	{
		tickets.POST("", ticketHandler.SellTicket)
		tickets.GET("", ticketHandler.GetAllTickets)
		tickets.GET("/:id", ticketHandler.GetTicket)
		tickets.DELETE("/:id", ticketHandler.DeleteTicket)
	}

	buyers := router.Group("/buyers")
	{
		buyers.GET("", ticketHandler.GetAllBuyers)
		buyers.GET("/:id", ticketHandler.GetBuyer)
		buyers.DELETE("/:id", ticketHandler.DeleteBuyer)
	}

	// Operational endpoints
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
