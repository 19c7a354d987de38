package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nqkhanh/edutest/config"
	"github.com/nqkhanh/edutest/database"
	_ "github.com/nqkhanh/edutest/docs" // Swagger docs
	"github.com/nqkhanh/edutest/internal/controller"
	adminctrl "github.com/nqkhanh/edutest/internal/controller/admin"
	userctrl "github.com/nqkhanh/edutest/internal/controller/user"
	"github.com/nqkhanh/edutest/internal/logger"
	"github.com/nqkhanh/edutest/internal/middleware"
	"github.com/nqkhanh/edutest/internal/model"
	"github.com/nqkhanh/edutest/internal/repository"
	"github.com/nqkhanh/edutest/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title EduTest API
// @version 1.0
// @description Test administration backend: test authoring, timed attempts with auto-save, auto-grading and analytics.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewUserRepository,
			repository.NewTestRepository,
			repository.NewResultRepository,
		),

		fx.Provide(
			service.NewAuthService,
			service.NewUserService,
			service.NewTestService,
			service.NewAttemptService,
			service.NewResultService,
			service.NewAnalyticsService,
			service.NewEssayReviewer,
			service.NewReviewAssistService,
		),

		fx.Provide(
			controller.NewAuthController,
			adminctrl.NewTestController,
			adminctrl.NewResultController,
			adminctrl.NewUserController,
			userctrl.NewTestController,
			userctrl.NewResultController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer wires the route tree and ties the HTTP server
// to the fx lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	authCtrl *controller.AuthController,
	adminTestCtrl *adminctrl.TestController,
	adminResultCtrl *adminctrl.ResultController,
	adminUserCtrl *adminctrl.UserController,
	studentTestCtrl *userctrl.TestController,
	studentResultCtrl *userctrl.ResultController,
) {
	api := router.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authCtrl.Register)
		auth.POST("/login", authCtrl.Login)

		authed := auth.Group("", middleware.Protect(cfg))
		authed.GET("/me", authCtrl.GetMe)
		authed.PUT("/me", authCtrl.UpdateProfile)
		authed.PUT("/change-password", authCtrl.ChangePassword)
	}

	student := api.Group("", middleware.Protect(cfg))
	{
		student.GET("/tests", studentTestCtrl.GetPublishedTests)
		student.GET("/tests/:test_id", studentTestCtrl.GetTest)
		student.POST("/tests/:test_id/start", studentTestCtrl.StartAttempt)
		student.POST("/tests/:test_id/save-answer", studentTestCtrl.SaveAnswer)
		student.POST("/tests/:test_id/submit", studentTestCtrl.SubmitAttempt)

		student.GET("/results/my", studentResultCtrl.GetMyResults)
		student.GET("/results/:result_id", studentResultCtrl.GetResult)
	}

	admin := api.Group("/admin", middleware.Protect(cfg), middleware.Authorize(model.RoleAdmin))
	{
		tests := admin.Group("/tests")
		tests.POST("", adminTestCtrl.CreateTest)
		tests.GET("", adminTestCtrl.GetTests)
		tests.GET("/:test_id", adminTestCtrl.GetTest)
		tests.PUT("/:test_id", adminTestCtrl.UpdateTest)
		tests.DELETE("/:test_id", adminTestCtrl.DeleteTest)
		tests.PUT("/:test_id/publish", adminTestCtrl.PublishTest)
		tests.PUT("/:test_id/unpublish", adminTestCtrl.UnpublishTest)

		results := admin.Group("/results")
		results.GET("", adminResultCtrl.GetAllResults)
		results.GET("/analytics", adminResultCtrl.Dashboard)
		results.GET("/export/:test_id", adminResultCtrl.ExportResults)
		results.GET("/test/:test_id", adminResultCtrl.GetResultsByTest)
		results.GET("/test/:test_id/analytics", adminResultCtrl.TestAnalytics)
		results.GET("/student/:student_id", adminResultCtrl.GetResultsByStudent)
		results.GET("/:result_id", adminResultCtrl.GetResult)
		results.PUT("/:result_id/grade", adminResultCtrl.ManualGrade)
		results.GET("/:result_id/review-assist", adminResultCtrl.ReviewAssist)
		results.DELETE("/:result_id", adminResultCtrl.DeleteResult)

		users := admin.Group("/users")
		users.GET("", adminUserCtrl.GetUsers)
		users.GET("/students", adminUserCtrl.GetStudents)
		users.GET("/admins", adminUserCtrl.GetAdmins)
		users.GET("/:user_id", adminUserCtrl.GetUser)
		users.POST("", adminUserCtrl.CreateUser)
		users.PUT("/:user_id", adminUserCtrl.UpdateUser)
		users.DELETE("/:user_id", adminUserCtrl.DeleteUser)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("EduTest API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Test{},
		&model.Question{},
		&model.Result{},
		&model.Answer{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
