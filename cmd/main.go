package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/meeting-assistant-backend/config"
	"github.com/vnkhanh/meeting-assistant-backend/controllers"
	"github.com/vnkhanh/meeting-assistant-backend/routes"
	"github.com/vnkhanh/meeting-assistant-backend/services"
	"github.com/vnkhanh/meeting-assistant-backend/utils"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy file .env")
	}

	config.InitDB()

	// Client sang analysis service + manager recording session
	controllers.Analysis = services.NewAnalysisClient()
	controllers.Recorder = services.NewRecorderManager(controllers.Analysis)

	// Dọn password reset token hết hạn định kỳ
	utils.StartCleanupJob()

	r := gin.Default()

	// Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Sample-Rate", "X-Channels"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r = routes.SetupRouter(r, config.DB)

	// Route test server
	r.GET("/", func(c *gin.Context) {
		c.String(200, "Meeting assistant server is running")
	})

	// Lấy PORT từ env
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // mặc định nếu không có PORT
	}

	log.Println("Server running at Port:" + port)
	r.Run(":" + port)
}
