package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/meeting-assistant-backend/controllers"
	"github.com/vnkhanh/meeting-assistant-backend/middleware"
	"github.com/vnkhanh/meeting-assistant-backend/ws"
)

func SetupRouter(r *gin.Engine, db *gorm.DB) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.POST("/logingoogle", controllers.GoogleLogin)
		auth.POST("/forgot", controllers.ForgotPassword)
		auth.POST("/reset", controllers.ResetPassword)
		auth.GET("/me", middleware.AuthMiddleware(), controllers.Me)
		auth.POST("/logout", middleware.AuthMiddleware(), controllers.Logout)
	}

	user := api.Group("")
	{
		user.Use(middleware.AuthMiddleware())

		// Meetings
		user.POST("/meetings", controllers.UpsertMeeting)
		user.GET("/meetings", controllers.ListMeetings)
		user.GET("/meetings/:id", controllers.GetMeetingDetail)
		user.DELETE("/meetings/:id", controllers.DeleteMeeting)
		user.GET("/meetings/:id/transcript", controllers.GetMeetingTranscript)
		user.GET("/meetings/:id/markers", controllers.GetMeetingMarkers)
		user.GET("/meetings/:id/notes", controllers.GetMeetingNotes)
		user.GET("/meetings/:id/export", controllers.ExportMeetingField)

		// Các bước phân tích (mỗi bước một call độc lập)
		user.POST("/meetings/transcribe", controllers.Transcribe)
		user.POST("/meetings/:id/summarize", controllers.Summarize)
		user.POST("/meetings/:id/action-items", controllers.ActionItems)
		user.POST("/meetings/:id/minutes", controllers.Minutes)
		user.POST("/meetings/:id/sentiment", controllers.Sentiment)
		user.POST("/meetings/:id/scoring", controllers.Scoring)
		user.POST("/meetings/:id/chat", controllers.Chat)
		user.POST("/meetings/:id/minutes/audio", controllers.MinutesAudio)
		user.POST("/meetings/agenda-document", controllers.AgendaDocument)

		// Notes
		user.POST("/notes", controllers.CreateNote)
		user.GET("/notes", controllers.ListNotes)
		user.GET("/notes/:id", controllers.GetNoteDetail)
		user.DELETE("/notes/:id", controllers.DeleteNote)

		// Recording session
		user.POST("/recordings/start", controllers.StartRecording)
		user.POST("/recordings/chunks", controllers.AppendRecordingChunk)
		user.POST("/recordings/stop", controllers.StopRecording)
		user.DELETE("/recordings", controllers.TeardownRecording)
		user.POST("/recordings/live/start", controllers.StartLiveView)
		user.POST("/recordings/live/stop", controllers.StopLiveView)
		user.GET("/recordings/live", controllers.GetLiveTranscriptBuffer)
		user.POST("/recordings/voice-sample", controllers.UploadVoiceSample)
	}

	r.GET("/ws/live", ws.HandleLiveTranscriptWebSocket)

	return r
}
