package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
)

type Deps struct {
	Session *handlers.SessionHandler
	WS      *handlers.WSHandler
	Metrics http.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	// candidates connect with job and resume ids; the schedule window is the gate
	r.GET("/ws/interview/:job_id/:resume_id", d.WS.InterviewWS)

	iv := r.Group("/interview")
	iv.GET("/session/:session_id", d.Session.Get)
	iv.GET("/session/:session_id/scores", d.Session.Scores)
	iv.GET("/resume/:resume_id/session", d.Session.LatestByResume)
	iv.GET("/analytics/:job_id", d.Session.Analytics)

	admin := iv.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	admin.POST("/reset/:session_id", d.Session.Reset)
}
