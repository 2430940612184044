package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports service liveness.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// AgentsStatusHandler lists the workflow stages and their roles, in
// pipeline order.
func AgentsStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"agents": []gin.H{
			{"name": "Security Agent", "role": "Screens messages for prompt injection and unsafe content", "status": "active"},
			{"name": "Intake Agent", "role": "Gathers symptoms and routes non-medical or crisis messages", "status": "active"},
			{"name": "Triage Agent", "role": "Assigns care priority and medical specialty", "status": "active"},
			{"name": "Comorbidity Agent", "role": "Evaluates risk factors and condition interactions", "status": "active"},
			{"name": "Appointment Booker", "role": "Finds open slots and confirms bookings", "status": "active"},
		},
	})
}
