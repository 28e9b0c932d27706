package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const serviceName = "fintechbank-api"

// ServiceInfo answers the unversioned root route.
func ServiceInfo(projectName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": projectName + " is running!",
			"version": version,
		})
	}
}

// Health is the liveness probe.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}
