package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/controllers"
	"github.com/andikarw/photo-market/middlewares"
	"github.com/andikarw/photo-market/services"
)

// SetupRouter merakit seluruh route aplikasi.
func SetupRouter(db *gorm.DB, gateway *services.TripayService, purchaseService *services.PurchaseService, verificationService *services.VerificationService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.SecurityHeaders())

	limiter := middlewares.NewRateLimiter(100, 60)
	r.Use(limiter.RateLimit())

	userController := controllers.NewUserController(db)
	eventController := controllers.NewEventController(db)
	photoController := controllers.NewPhotoController(db)
	purchaseController := controllers.NewPurchaseController(db, purchaseService, gateway)
	callbackController := controllers.NewCallbackController(gateway, purchaseService.Reconciler())
	adminController := controllers.NewAdminController(db, verificationService)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.Static("/uploads", "./public/uploads")

	// Auth
	strict := middlewares.NewStrictRateLimiter()
	r.POST("/register", strict, userController.Register)
	r.POST("/login", strict, userController.Login)

	// Katalog publik
	r.GET("/events", eventController.GetAllEvents)
	r.GET("/events/:event_id", eventController.GetEventByID)
	r.GET("/events/:event_id/photos", eventController.GetEventPhotos)
	r.GET("/photos/:photo_id", photoController.GetPhotoByID)
	r.GET("/payment-channels", purchaseController.GetPaymentChannels)
	r.GET("/manual-payment-methods", purchaseController.GetManualPaymentMethods)

	// Webhook gateway: publik, diautentikasi lewat signature HMAC.
	r.POST("/payments/callback", callbackController.HandlePaymentCallback)

	// Route buyer yang butuh login
	authed := r.Group("/")
	authed.Use(middlewares.AuthMiddleware())
	{
		authed.GET("/profile", userController.GetProfile)
		authed.POST("/logout", userController.Logout)

		authed.POST("/purchases", purchaseController.CreatePurchase)
		authed.GET("/purchases", purchaseController.GetMyPurchases)
		authed.GET("/purchases/:transaction_id/sync", purchaseController.SyncPurchaseStatus)
		authed.POST("/purchases/:transaction_id/proof", purchaseController.UploadPaymentProof)
	}

	// Route admin
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.AdminOnly())
	{
		admin.POST("/events", eventController.CreateEvent)
		admin.PUT("/events/:event_id", eventController.UpdateEvent)
		admin.DELETE("/events/:event_id", eventController.DeleteEvent)

		admin.POST("/photos", photoController.CreatePhoto)
		admin.PUT("/photos/:photo_id", photoController.UpdatePhoto)
		admin.DELETE("/photos/:photo_id", photoController.DeletePhoto)
		admin.POST("/photos/:photo_id/file", photoController.UploadPhotoFile)

		admin.GET("/purchases", adminController.GetAllPurchases)
		admin.GET("/purchases/pending-manual", adminController.GetPendingManualPurchases)
		admin.POST("/purchases/:purchase_id/approve", adminController.ApprovePurchase)
		admin.POST("/purchases/:purchase_id/reject", adminController.RejectPurchase)
		admin.GET("/purchase-logs", adminController.GetPurchaseLogs)

		admin.POST("/manual-payment-methods", adminController.CreateManualPaymentMethod)
		admin.PUT("/manual-payment-methods/:method_id", adminController.UpdateManualPaymentMethod)
		admin.DELETE("/manual-payment-methods/:method_id", adminController.DeleteManualPaymentMethod)
	}

	// Feed realtime dashboard admin (token lewat query string)
	r.GET("/ws/admin", middlewares.WebSocketAuthMiddleware(), controllers.AdminPurchaseFeed)

	return r
}
