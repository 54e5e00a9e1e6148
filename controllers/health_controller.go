package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vnkhanh/meeting-assistant-backend/config"
)

func HealthCheck(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"

	if config.DB != nil {
		if sqlDB, err := config.DB.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
	} else {
		status = "degraded"
		dbStatus = "not initialized"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"db":     dbStatus,
		"time":   time.Now().UTC(),
	})
}
