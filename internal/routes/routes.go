package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/sahyadri-heights/carpool-backend/internal/handlers"
	"github.com/sahyadri-heights/carpool-backend/internal/middleware"
	"github.com/sahyadri-heights/carpool-backend/internal/services"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, booking *services.BookingService,
	otp *services.OTPService, sessions *services.SessionService, google services.GoogleVerifier) {

	authHandler := handlers.NewAuthHandler(store, otp, sessions, google)
	tripHandler := handlers.NewTripHandler(store, booking)
	requestHandler := handlers.NewRequestHandler(store, booking)
	poolHandler := handlers.NewPoolHandler(store)
	noticeHandler := handlers.NewNoticeHandler(store)
	chargeHandler := handlers.NewChargeHandler(store)
	termsHandler := handlers.NewTermsHandler(store)
	adminHandler := handlers.NewAdminHandler(store)
	analyticsHandler := handlers.NewAnalyticsHandler(store)

	api := app.Group("/api")

	// ========== AUTH ROUTES (public) ==========
	auth := api.Group("/auth")
	// Per-IP abuse guard; the per-email OTP window lives in the OTP
	// service against storage.
	auth.Use(limiter.New(limiter.Config{Max: 30}))
	auth.Post("/otp/request", authHandler.RequestOTP)
	auth.Post("/otp/verify", authHandler.VerifyOTP)
	auth.Post("/google", authHandler.GoogleSignIn)

	// Terms are public so the signup screen can show them
	api.Get("/terms", termsHandler.GetLatest)

	// ========== RESIDENT ROUTES (approved accounts) ==========
	authed := api.Group("", middleware.Authenticate(sessions, store))
	authed.Get("/auth/me", authHandler.Me)

	resident := authed.Group("", middleware.RequireApproved())

	trips := resident.Group("/trips")
	trips.Post("/", tripHandler.CreateTrip)
	trips.Get("/", tripHandler.GetTrips)
	trips.Get("/mine", tripHandler.GetMyTrips)
	trips.Get("/:tripID", tripHandler.GetTrip)
	trips.Delete("/:tripID", tripHandler.CancelTrip)
	trips.Get("/:tripID/requests", requestHandler.GetTripRequests)

	requests := resident.Group("/requests")
	requests.Post("/", requestHandler.CreateRequest)
	requests.Get("/mine", requestHandler.GetMyRequests)
	requests.Patch("/:requestID", requestHandler.UpdateRequest)
	requests.Delete("/:requestID", requestHandler.DeleteRequest)

	pools := resident.Group("/pools")
	pools.Post("/", poolHandler.CreatePool)
	pools.Get("/", poolHandler.GetOpenPools)
	pools.Post("/:poolID/close", poolHandler.ClosePool)

	resident.Get("/notices", noticeHandler.GetNotices)
	resident.Get("/charges", chargeHandler.GetCharges)

	// ========== ADMIN ROUTES ==========
	admin := authed.Group("/admin", middleware.RequireAdmin())

	admin.Get("/users", adminHandler.GetUsers)
	admin.Patch("/users/:userID/status", adminHandler.UpdateUserStatus)
	admin.Patch("/users/:userID/role", adminHandler.SetUserRole)
	admin.Delete("/users/:userID", adminHandler.DeleteUser)

	admin.Post("/notices", noticeHandler.CreateNotice)
	admin.Patch("/notices/:noticeID", noticeHandler.UpdateNotice)
	admin.Delete("/notices/:noticeID", noticeHandler.DeleteNotice)

	admin.Post("/charges", chargeHandler.CreateCharge)
	admin.Patch("/charges/:chargeID", chargeHandler.UpdateCharge)
	admin.Delete("/charges/:chargeID", chargeHandler.DeleteCharge)

	admin.Post("/terms", termsHandler.Publish)
	admin.Get("/analytics", analyticsHandler.Overview)
}
