package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/api"
	"github.com/lalith-99/huddle/internal/bus"
	"github.com/lalith-99/huddle/internal/config"
	"github.com/lalith-99/huddle/internal/db"
	"github.com/lalith-99/huddle/internal/middleware"
	"github.com/lalith-99/huddle/internal/observ"
	"github.com/lalith-99/huddle/internal/repository/postgres"
	"github.com/lalith-99/huddle/internal/service"
	"github.com/lalith-99/huddle/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no parent request or deadline, so Background() is the
	// right root context here. Each HTTP request gets its own later.
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	// ---------------------------------------------------------------
	// Repositories. Assigned through the interface types so a missing
	// method fails at compile time, and the service layer never learns
	// which store it got.
	// ---------------------------------------------------------------
	pool := database.Pool()
	communityRepo := postgres.NewCommunityStore(pool)
	membershipRepo := postgres.NewMembershipStore(pool)
	joinRequestRepo := postgres.NewJoinRequestStore(pool)
	postRepo := postgres.NewPostStore(pool)
	userRepo := postgres.NewUserStore(pool)

	publisher := bus.NewRedisPublisher(redisClient)

	communitySvc := service.NewCommunityService(communityRepo, membershipRepo, logger)
	membershipSvc := service.NewMembershipService(communityRepo, membershipRepo, publisher, logger)
	joinRequestSvc := service.NewJoinRequestService(communityRepo, membershipRepo, joinRequestRepo, publisher, logger)
	postSvc := service.NewPostService(communityRepo, membershipRepo, postRepo, publisher, logger)

	hub := ws.NewHub(redisClient, logger)

	authHandler := api.NewAuthHandler(userRepo, cfg.JWTSecret, logger)
	userHandler := api.NewUserHandler(userRepo, logger)
	communityHandler := api.NewCommunityHandler(communitySvc, logger)
	membershipHandler := api.NewMembershipHandler(membershipSvc, logger)
	joinRequestHandler := api.NewJoinRequestHandler(joinRequestSvc, logger)
	postHandler := api.NewPostHandler(postSvc, logger)
	healthHandler := api.NewHealthHandler(database, redisClient, logger)
	wsHandler := ws.NewHandler(hub, redisClient, communityRepo, membershipRepo, logger)

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Public routes: health for load balancers, auth because these are
	// what produce the JWT in the first place.
	srv.GET("/v1/health", healthHandler.Check)
	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)

	// Everything else requires a valid JWT; the middleware runs before any
	// handler in this group.
	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.GET("/users/me", userHandler.GetMe)

	v1.POST("/communities", communityHandler.Create)
	v1.GET("/communities", communityHandler.List)
	v1.GET("/communities/:id", communityHandler.Get)
	v1.PUT("/communities/:id", communityHandler.Update)
	v1.PUT("/communities/:id/settings", communityHandler.UpdateSettings)
	v1.DELETE("/communities/:id", communityHandler.Delete)
	v1.GET("/communities/:id/members", communityHandler.ListMembers)

	v1.POST("/communities/:id/join", membershipHandler.Join)
	v1.POST("/communities/:id/leave", membershipHandler.Leave)
	v1.PUT("/communities/:id/members/:userID/role", membershipHandler.ChangeRole)
	v1.DELETE("/communities/:id/members/:userID", membershipHandler.RemoveMember)

	v1.POST("/communities/:id/join-requests", joinRequestHandler.Submit)
	v1.GET("/communities/:id/join-requests", joinRequestHandler.ListPending)
	v1.POST("/communities/:id/join-requests/:reqID", joinRequestHandler.Resolve)

	v1.POST("/communities/:id/posts", postHandler.CreatePost)
	v1.GET("/communities/:id/posts", postHandler.ListPosts)
	v1.DELETE("/posts/:id", postHandler.DeletePost)
	v1.POST("/posts/:id/like", postHandler.ToggleLike)
	v1.POST("/posts/:id/comments", postHandler.AddComment)
	v1.GET("/posts/:id/comments", postHandler.ListComments)
	v1.DELETE("/comments/:id", postHandler.DeleteComment)

	v1.GET("/ws", wsHandler.Serve)

	logger.Info("starting huddle",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	return srv.Run(":" + cfg.Port)
}
