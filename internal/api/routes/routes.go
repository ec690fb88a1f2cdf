package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"faderbank/internal/api/handlers"
	"faderbank/internal/api/middleware"
	"faderbank/internal/config"
	"faderbank/internal/database"
	"faderbank/internal/identity"
	"faderbank/internal/repositories/postgres"
	"faderbank/internal/services"
	"faderbank/internal/websocket"
)

type Router struct {
	engine      *gin.Engine
	wsHandler   *handlers.WSHandler
	profiles    *handlers.ProfileHandler
	channels    *handlers.ChannelHandler
	members     *handlers.MemberHandler
	invites     *handlers.InviteHandler
	resp        *handlers.ResponsibilityHandler
	users       *handlers.UserHandler
	rateLimitMW *middleware.RateLimitMiddleware
	authMW      *middleware.AuthMiddleware
}

// NewRouter wires repositories, services and handlers around the hub. The
// hub arrives without a responsibility arbiter attached; the cycle between
// them closes here.
func NewRouter(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *database.RedisClient,
	redisService *services.RedisService,
	hub *websocket.Hub,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	memberRepo := postgres.NewMemberRepository(db)
	stripRepo := postgres.NewChannelStripRepository(db)
	respRepo := postgres.NewResponsibilityRepository(db)
	linkRepo := postgres.NewActivationLinkRepository(db)

	// Services, all broadcasting through the hub
	respService := services.NewResponsibilityService(respRepo, memberRepo, userRepo, hub)
	hub.AttachResponsibility(respService)
	profileService := services.NewProfileService(db, profileRepo, memberRepo, respRepo, hub)
	memberService := services.NewMemberService(profileRepo, memberRepo, respService, hub)
	channelService := services.NewChannelService(db, stripRepo, memberRepo, hub)
	inviteService := services.NewInviteService(db, linkRepo, memberRepo, profileRepo, hub)

	eventRouter := websocket.NewEventRouter(hub, memberService, channelService, respService)

	// Identity resolution with a Redis-backed session cache
	resolver := identity.NewCachedResolver(
		identity.NewHTTPResolver(&cfg.Identity),
		redisClient.GetClient(),
		cfg.Identity.CacheTTL,
	)
	tickets := middleware.NewTicketIssuer(cfg.WS.TicketSecret, cfg.WS.TicketTTL)

	return &Router{
		engine:      engine,
		wsHandler:   handlers.NewWSHandler(hub, eventRouter, tickets),
		profiles:    handlers.NewProfileHandler(profileService),
		channels:    handlers.NewChannelHandler(channelService, memberService),
		members:     handlers.NewMemberHandler(memberService),
		invites:     handlers.NewInviteHandler(inviteService),
		resp:        handlers.NewResponsibilityHandler(respService, memberService),
		users:       handlers.NewUserHandler(),
		rateLimitMW: middleware.NewRateLimitMiddleware(redisService),
		authMW:      middleware.NewAuthMiddleware(resolver, userRepo, cfg.Identity.SessionCookie),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/v1")

	// The upgrade itself authenticates with a ticket, not a session
	api.GET("/ws", r.wsHandler.HandleWebSocket)

	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		auth.GET("/me", r.users.GetMe)

		ws := auth.Group("/ws")
		ws.Use(r.rateLimitMW.WebSocketRateLimit(10, time.Minute))
		{
			ws.POST("/ticket", r.wsHandler.IssueTicket)
		}

		profiles := auth.Group("/profiles")
		profiles.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			profiles.GET("", r.profiles.ListProfiles)
			profiles.POST("", r.profiles.CreateProfile)
			profiles.GET("/slug-check", r.profiles.CheckSlug)
			profiles.GET("/by-slug/:slug", r.profiles.GetProfileBySlug)
			profiles.GET("/:id", r.profiles.GetProfile)
			profiles.PUT("/:id", r.profiles.UpdateProfile)
			profiles.DELETE("/:id", r.profiles.DeleteProfile)
			profiles.POST("/:id/transfer", r.profiles.TransferOwnership)

			profiles.GET("/:id/channels", r.channels.ListChannels)
			profiles.POST("/:id/channels", r.channels.CreateChannel)
			profiles.POST("/:id/channels/reorder", r.channels.ReorderChannels)

			profiles.GET("/:id/members", r.members.ListMembers)
			profiles.PUT("/:id/members/:userId", r.members.UpdateMemberRole)
			profiles.DELETE("/:id/members/:userId", r.members.RemoveMember)

			profiles.GET("/:id/invitations", r.invites.ListInvitations)
			profiles.POST("/:id/invitations", r.invites.CreateInvitation)

			profiles.GET("/:id/responsibility", r.resp.GetResponsibility)
		}

		// Meters arrive much faster than configuration changes
		vu := auth.Group("/profiles/:id/vu")
		vu.Use(r.rateLimitMW.RateLimit(1200, time.Minute))
		{
			vu.POST("", r.channels.ReportVU)
		}

		channels := auth.Group("/channels")
		channels.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			channels.GET("/:id", r.channels.GetChannel)
			channels.PUT("/:id", r.channels.UpdateChannel)
			channels.DELETE("/:id", r.channels.DeleteChannel)
		}

		invitations := auth.Group("/invitations")
		invitations.Use(r.rateLimitMW.RateLimit(60, time.Minute))
		{
			invitations.GET("/:token", r.invites.PeekInvitation)
			invitations.POST("/:token/redeem", r.invites.RedeemInvitation)
			invitations.DELETE("/:id", r.invites.CancelInvitation)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
