package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/sahilchouksey/coursehive/config"
	"github.com/sahilchouksey/coursehive/database"
	"github.com/sahilchouksey/coursehive/handlers"
	admin_handlers "github.com/sahilchouksey/coursehive/handlers/admin"
	ai_handlers "github.com/sahilchouksey/coursehive/handlers/ai"
	auth_handlers "github.com/sahilchouksey/coursehive/handlers/auth"
	contact_handlers "github.com/sahilchouksey/coursehive/handlers/contact"
	course_handlers "github.com/sahilchouksey/coursehive/handlers/course"
	educator_handlers "github.com/sahilchouksey/coursehive/handlers/educator"
	payment_handlers "github.com/sahilchouksey/coursehive/handlers/payment"
	user_handlers "github.com/sahilchouksey/coursehive/handlers/user"
	"github.com/sahilchouksey/coursehive/services/ai"
	"github.com/sahilchouksey/coursehive/services/mailer"
	"github.com/sahilchouksey/coursehive/services/payment"
	"github.com/sahilchouksey/coursehive/services/storage"
	"github.com/sahilchouksey/coursehive/utils"
	"github.com/sahilchouksey/coursehive/utils/auth"
	"github.com/sahilchouksey/coursehive/utils/cache"
	"github.com/sahilchouksey/coursehive/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "coursehive-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs the catalog cache and brute force protection
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Caching and brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Payment flow: gateway client, store, checkout and webhook reconciliation
	gateway := payment.NewHTTPGateway(payment.GatewayConfig{
		SecretKey: env.PAYMENT_SECRET_KEY,
		BaseURL:   env.PAYMENT_API_URL,
	})
	paymentStore := payment.NewGormStore(db)
	checkoutService := payment.NewCheckoutService(paymentStore, gateway, env.PAYMENT_CURRENCY)

	// The mailer no-ops when SMTP is not configured
	mail := mailer.NewMailer()
	reconciler := payment.NewReconciler(paymentStore, mail)

	// Media storage for course thumbnails and lecture videos
	var spacesClient *storage.SpacesClient
	if env.SPACES_ACCESS_KEY != "" {
		spacesClient, err = storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: env.SPACES_ACCESS_KEY,
			SecretKey: env.SPACES_SECRET_KEY,
			Bucket:    env.SPACES_BUCKET,
			Region:    env.SPACES_REGION,
			Endpoint:  env.SPACES_ENDPOINT,
			CDNURL:    env.SPACES_CDN_URL,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize Spaces client: %v. Course media uploads will fail.", err)
		}
	}

	aiClient := ai.NewClient(ai.Config{
		APIKey:  env.AI_API_KEY,
		BaseURL: env.AI_API_URL,
	})

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db, redisCache)
	userHandler := user_handlers.NewUserHandler(db)
	checkoutHandler := payment_handlers.NewCheckoutHandler(checkoutService)
	webhookHandler := payment_handlers.NewWebhookHandler(env.PAYMENT_WEBHOOK_SECRET, reconciler)
	educatorHandler := educator_handlers.NewEducatorHandler(db, spacesClient, courseHandler.InvalidateCatalogCache)
	approvalHandler := admin_handlers.NewEducatorApprovalHandler(db)
	aiHandler := ai_handlers.NewAIHandler(aiClient)
	contactHandler := contact_handlers.NewContactHandler(db, mail)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Get("/profile", authMiddleware.Required(), authHandler.GetProfile)

	// Course catalog (public; lecture URLs are filtered per caller)
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", authMiddleware.Optional(), courseHandler.GetCourse)

	// User routes (protected)
	userGroup := api.Group("/user", authMiddleware.Required())
	userGroup.Get("/data", userHandler.GetData)
	userGroup.Get("/enrolled-courses", userHandler.EnrolledCourses)
	userGroup.Post("/update-course-progress", userHandler.UpdateProgress)
	userGroup.Get("/course-progress/:course_id", userHandler.GetProgress)
	userGroup.Post("/add-rating", userHandler.AddRating)

	// Purchase a course: creates the pending purchase and gateway session
	userGroup.Post("/purchase", checkoutHandler.PurchaseCourse)

	// Gateway webhook (public, authenticated by signature over the raw body)
	api.Post("/payments/webhook", webhookHandler.HandleGatewayEvent)

	// Educator routes. RequireEducator/RequireAdmin only check the role of the
	// caller Required() attached, so they always chain behind it.
	educatorGroup := api.Group("/educator", authMiddleware.Required())
	educatorGroup.Post("/request-role", educatorHandler.RequestRole)
	educatorGroup.Post("/add-course", authMiddleware.RequireEducator(), educatorHandler.AddCourse)
	educatorGroup.Get("/courses", authMiddleware.RequireEducator(), educatorHandler.MyCourses)
	educatorGroup.Get("/dashboard", authMiddleware.RequireEducator(), educatorHandler.Dashboard)
	educatorGroup.Get("/enrolled-students", authMiddleware.RequireEducator(), educatorHandler.EnrolledStudents)

	// Admin routes
	adminGroup := api.Group("/admin", authMiddleware.Required(), authMiddleware.RequireAdmin())
	adminGroup.Get("/educator-requests", approvalHandler.ListRequests)
	adminGroup.Post("/educator-requests/:id/approve", approvalHandler.Approve)
	adminGroup.Post("/educator-requests/:id/reject", approvalHandler.Reject)

	// AI helpers (protected)
	aiGroup := api.Group("/ai", authMiddleware.Required())
	aiGroup.Post("/tags", aiHandler.ExtractTags)
	aiGroup.Post("/fact", aiHandler.CourseFact)

	// Contact form (public)
	api.Post("/contact", contactHandler.Submit)
}
