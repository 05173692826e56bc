// server/internal/api/routes/routes.go
package routes

import (
	"pipeyard-storage-api-server/internal/api/handlers"
	"pipeyard-storage-api-server/internal/api/middleware"
	"pipeyard-storage-api-server/internal/engine"
	"pipeyard-storage-api-server/internal/s3"
	"pipeyard-storage-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRouter nhận vào các thành phần phụ thuộc và thiết lập các route
func SetupRouter(
	db *mongo.Database,
	txnEngine *engine.Engine,
	worker *engine.Worker,
	s3Uploader *s3.Uploader,
	wsHub *socket.Hub,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	// Khởi tạo các handlers
	requestHandler := &handlers.RequestHandler{DB: db, Engine: txnEngine}
	loadHandler := &handlers.LoadHandler{DB: db, Engine: txnEngine, S3Uploader: s3Uploader}
	inventoryHandler := &handlers.InventoryHandler{DB: db, Engine: txnEngine}
	locationHandler := &handlers.LocationHandler{DB: db}
	queueHandler := &handlers.QueueHandler{Worker: worker}
	auditHandler := &handlers.AuditHandler{DB: db}
	userHandler := &handlers.UserHandler{DB: db}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub}

	apiV1 := router.Group("/api/v1")
	{
		// Route cho WebSocket (dashboard nhân viên kho)
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		// === CÁC ROUTE KHÔNG YÊU CẦU XÁC THỰC ===

		// Nhóm API authentication
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
		}

		// === CÁC ROUTE YÊU CẦU XÁC THỰC (PROTECTED) ===
		// Tất cả các route bên dưới sẽ đi qua middleware Authenticate trước

		// Nhóm API quản trị, yêu cầu vai trò "admin"
		admin := apiV1.Group("/admin")
		admin.Use(middleware.Authenticate())
		admin.Use(middleware.Authorize("admin"))
		{
			// User management
			admin.POST("/users", userHandler.CreateUser)

			// Location management (CRUD)
			locations := admin.Group("/locations")
			{
				locations.POST("/", locationHandler.CreateLocation)
				locations.PUT("/:id", locationHandler.UpdateLocation)
			}

			// Notification queue operations
			notifications := admin.Group("/notifications")
			{
				notifications.POST("/drain", queueHandler.DrainQueue)
				notifications.GET("/pending", queueHandler.GetPendingEntries)
				notifications.GET("/stuck", queueHandler.GetStuckEntries)
			}
		}

		// Nhóm các API nghiệp vụ chính, yêu cầu các vai trò cụ thể
		businessRoutes := apiV1.Group("/")
		businessRoutes.Use(middleware.Authenticate())
		businessRoutes.Use(middleware.Authorize("customer", "staff", "admin"))
		{
			// Storage request management
			requests := businessRoutes.Group("/requests")
			{
				// Customer tạo request và xem request của công ty mình
				requests.POST("/", requestHandler.CreateStorageRequest)
				requests.GET("/my", requestHandler.GetMyStorageRequests)
				requests.GET("/:id", requestHandler.GetStorageRequestByID)
				requests.GET("/:id/loads", loadHandler.GetLoadsByRequest)
				requests.POST("/:id/loads", loadHandler.BookLoad)

				// Route chỉ cho staff/admin duyệt
				staffRequestRoutes := requests.Group("/")
				staffRequestRoutes.Use(middleware.Authorize("staff", "admin"))
				{
					staffRequestRoutes.GET("/", requestHandler.GetAllStorageRequests)
					staffRequestRoutes.POST("/:id/approve", requestHandler.ApproveStorageRequest)
					staffRequestRoutes.POST("/:id/reject", requestHandler.RejectStorageRequest)
					staffRequestRoutes.GET("/:id/inventory", inventoryHandler.GetInventoryByRequest)
				}
			}

			// Load management
			loads := businessRoutes.Group("/loads")
			{
				loads.POST("/:id/manifest-document", loadHandler.UploadManifestDocument)

				// Các chuyển trạng thái chỉ cho staff/admin
				staffLoadRoutes := loads.Group("/")
				staffLoadRoutes.Use(middleware.Authorize("staff", "admin"))
				{
					staffLoadRoutes.GET("/", loadHandler.GetAllLoads)
					staffLoadRoutes.POST("/:id/approve", loadHandler.ApproveLoad)
					staffLoadRoutes.POST("/:id/in-transit", loadHandler.StartLoadTransit)
					staffLoadRoutes.POST("/:id/reject", loadHandler.RejectLoad)
					staffLoadRoutes.POST("/:id/complete", loadHandler.CompleteLoad)
				}
			}

			// Audit trail (chỉ đọc, staff/admin)
			auditRoutes := businessRoutes.Group("/audit-log")
			auditRoutes.Use(middleware.Authorize("staff", "admin"))
			{
				auditRoutes.GET("/", auditHandler.GetAuditLog)
			}

			// Inventory
			inventory := businessRoutes.Group("/inventory")
			{
				inventory.GET("/my", inventoryHandler.GetMyInventory)

				staffInventoryRoutes := inventory.Group("/")
				staffInventoryRoutes.Use(middleware.Authorize("staff", "admin"))
				{
					staffInventoryRoutes.POST("/pickup", inventoryHandler.PickUpInventory)
				}
			}

			// Location (chỉ đọc)
			locations := businessRoutes.Group("/locations")
			{
				locations.GET("/", locationHandler.GetAllLocations)
				locations.GET("/:id", locationHandler.GetLocationByID)

				staffLocationRoutes := locations.Group("/")
				staffLocationRoutes.Use(middleware.Authorize("staff", "admin"))
				{
					staffLocationRoutes.GET("/:id/inventory", locationHandler.GetLocationInventory)
				}
			}
		}
	}

	return router
}
