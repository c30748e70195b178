package router

import (
	"net/http"
	"time"

	"fitcommunity/config"
	"fitcommunity/internal/domain"
	"fitcommunity/internal/handler"
	"fitcommunity/internal/logging"
	"fitcommunity/internal/middleware"
	"fitcommunity/internal/repository"
	"fitcommunity/internal/service"
	"fitcommunity/internal/upstream"
	"fitcommunity/internal/ws"
	"fitcommunity/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// quotes and cat facts change often upstream; keep them short-lived
const factTTL = time.Minute

// Integrations are the optional external services built by main. Nil fields
// disable the feature: uploads answer 503, notifications skip push.
type Integrations struct {
	Images cloudinary.Uploader
	Push   service.Pusher
}

func Setup(cfg *config.Config, db *gorm.DB, ext Integrations, limiter *middleware.RateLimiter) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(), middleware.AccessLog(), middleware.Monitor())
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	mentorRepo := repository.NewMentorRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	forumRepo := repository.NewForumRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// Upstreams
	up := cfg.Upstream
	geoClient := upstream.NewClient("geocoder", up.Geocoder, up.UserAgent)
	quoteClient := upstream.NewClient("quotes", up.Quotes, up.UserAgent)
	catClient := upstream.NewClient("catfacts", up.CatFacts, up.UserAgent)
	gifClient := upstream.NewClient("gifs", up.Gifs, up.UserAgent)
	exerciseClient := upstream.NewClient("exercisedb", up.ExerciseDB, up.UserAgent)
	llmClient := upstream.NewClient("llm", up.LLM, up.UserAgent)
	llm := upstream.NewLLM(llmClient, up.LLMModel, up.LLMAttempts)

	chatHub := ws.NewChatHub()

	// Services
	if ext.Push == nil {
		logging.Info().Msg("push notifications disabled: set firebase.service_account_path to enable")
	}
	if ext.Images == nil {
		logging.Info().Msg("image uploads disabled: cloudinary credentials not set")
	}
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, ext.Push)
	notifSvc.SetPushTimeout(cfg.Firebase.PushTimeout)
	profileSvc := service.NewProfileService(userRepo, ext.Images, cfg.Cloudinary.Folder)
	mentorSvc := service.NewMentorService(mentorRepo, userRepo, notifSvc)
	goalSvc := service.NewGoalService(goalRepo, mentorRepo, userRepo, notifSvc, llm)
	challengeSvc := service.NewChallengeService(challengeRepo, upstream.NewNominatim(geoClient, up.CacheTTL), notifSvc, cfg.Search.DefaultRadiusKm)
	forumSvc := service.NewForumService(forumRepo, notifSvc)
	voteSvc := service.NewVoteService(db, voteRepo, notifSvc)
	chatSvc := service.NewChatService(chatRepo, userRepo, notifSvc, chatHub)
	chatSvc.UseMedia(ext.Images, cfg.Cloudinary.Folder)
	assistantSvc := service.NewAssistantService(
		upstream.NewQuotes(quoteClient, factTTL),
		upstream.NewCatFacts(catClient, factTTL),
		upstream.NewGifs(gifClient),
		upstream.NewExercises(exerciseClient, up.CacheTTL),
		llm,
	)
	maintSvc := service.NewMaintenanceService(counterRepo, goalSvc, challengeSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(&cfg.OAuth, authSvc)
	meHandler := handler.NewMeHandler(profileSvc)
	mentorHandler := handler.NewMentorHandler(mentorSvc)
	goalHandler := handler.NewGoalHandler(goalSvc)
	challengeHandler := handler.NewChallengeHandler(challengeSvc)
	forumHandler := handler.NewForumHandler(forumSvc, profileSvc)
	voteHandler := handler.NewVoteHandler(voteSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	assistantHandler := handler.NewAssistantHandler(assistantSvc)
	adminHandler := handler.NewAdminHandler(maintSvc, geoClient, quoteClient, catClient, gifClient, exerciseClient, llmClient)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMw, authHandler.Logout)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		authed := api.Group("")
		authed.Use(authMw)

		me := authed.Group("/me")
		{
			me.GET("", meHandler.Get)
			me.PATCH("", meHandler.Update)
			me.POST("/avatar", meHandler.UploadAvatar)
			me.POST("/fcm-token", meHandler.RegisterFCMToken)
		}
		authed.GET("/users", meHandler.SearchUsers)
		authed.GET("/users/:id", meHandler.GetUser)
		authed.GET("/coaches", meHandler.Coaches)

		authed.POST("/mentors/requests", mentorHandler.Request)
		authed.GET("/mentors/requests", mentorHandler.Pending)
		authed.POST("/mentors/requests/:id/accept", mentorHandler.Accept)
		authed.POST("/mentors/requests/:id/reject", mentorHandler.Reject)
		authed.POST("/mentors/:id/terminate", mentorHandler.Terminate)
		authed.GET("/mentors", mentorHandler.Mentors)
		authed.GET("/mentees", mentorHandler.Mentees)

		goals := authed.Group("/goals")
		{
			goals.GET("", goalHandler.List)
			goals.POST("", goalHandler.Create)
			goals.GET("/assigned", goalHandler.Assigned)
			goals.POST("/check-inactive", goalHandler.CheckInactive)
			goals.POST("/suggestions", goalHandler.Suggestions)
			goals.GET("/:id", goalHandler.Get)
			goals.PATCH("/:id", goalHandler.Update)
			goals.DELETE("/:id", goalHandler.Delete)
			goals.POST("/:id/progress", goalHandler.Progress)
		}

		challenges := authed.Group("/challenges")
		{
			challenges.GET("", challengeHandler.Search)
			challenges.POST("", middleware.RequireRole(domain.RoleCoach), challengeHandler.Create)
			challenges.GET("/nearby", challengeHandler.Nearby)
			challenges.POST("/check-ended", challengeHandler.CheckEnded)
			challenges.GET("/:id", challengeHandler.Get)
			challenges.PATCH("/:id", middleware.RequireRole(domain.RoleCoach), challengeHandler.Update)
			challenges.DELETE("/:id", middleware.RequireRole(domain.RoleCoach), challengeHandler.Delete)
			challenges.POST("/:id/join", challengeHandler.Join)
			challenges.DELETE("/:id/join", challengeHandler.Leave)
			challenges.POST("/:id/progress", challengeHandler.Progress)
			challenges.GET("/:id/leaderboard", challengeHandler.Leaderboard)
		}

		authed.GET("/forums", forumHandler.ListForums)
		authed.POST("/forums", middleware.RequireRole(domain.RoleCoach, domain.RoleAdmin), forumHandler.CreateForum)
		authed.GET("/forums/:id", forumHandler.GetForum)
		authed.GET("/forums/:id/threads", forumHandler.ListThreads)
		authed.POST("/forums/:id/threads", forumHandler.CreateThread)
		authed.GET("/threads/:id", forumHandler.GetThread)
		authed.PATCH("/threads/:id", forumHandler.UpdateThread)
		authed.DELETE("/threads/:id", forumHandler.DeleteThread)
		authed.POST("/threads/:id/image", forumHandler.UploadThreadImage)
		authed.GET("/threads/:id/comments", forumHandler.ListComments)
		authed.POST("/threads/:id/comments", forumHandler.CreateComment)
		authed.PATCH("/comments/:id", forumHandler.UpdateComment)
		authed.DELETE("/comments/:id", forumHandler.DeleteComment)
		authed.GET("/comments/:id/subcomments", forumHandler.ListSubcomments)
		authed.POST("/comments/:id/subcomments", forumHandler.CreateSubcomment)
		authed.PATCH("/subcomments/:id", forumHandler.UpdateSubcomment)
		authed.DELETE("/subcomments/:id", forumHandler.DeleteSubcomment)

		authed.POST("/votes", voteHandler.Cast)
		authed.GET("/votes/:content_type/:object_id", voteHandler.Get)
		authed.DELETE("/votes/:content_type/:object_id", voteHandler.Remove)

		authed.GET("/chats", chatHandler.List)
		authed.POST("/chats", chatHandler.Create)
		authed.GET("/chats/:id/messages", chatHandler.Messages)
		authed.POST("/chats/:id/messages", chatHandler.Send)
		authed.POST("/chats/:id/media", chatHandler.UploadMedia)

		authed.GET("/notifications", notificationHandler.List)
		authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
		authed.DELETE("/notifications/:id", notificationHandler.Delete)

		authed.GET("/quotes", assistantHandler.Quote)
		authed.GET("/catfacts", assistantHandler.CatFact)
		authed.GET("/gifs", assistantHandler.Gifs)
		authed.GET("/exercises", assistantHandler.Exercises)
		authed.GET("/exercises/body-parts", assistantHandler.BodyParts)
		authed.POST("/ai/tutor", assistantHandler.Tutor)
		authed.POST("/ai/advice", assistantHandler.Advice)

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.POST("/maintenance/reconcile-counters", adminHandler.ReconcileCounters)
			admin.POST("/maintenance/checks", adminHandler.RunChecks)
			admin.GET("/upstreams", adminHandler.Upstreams)
		}
	}

	r.GET("/ws/chat", handler.UpgradeChatWS(&cfg.JWT, chatHub, chatSvc))

	return r
}
