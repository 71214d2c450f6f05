package handlers

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/justsurfingit/interview-scheduler/internal/dtos"
	"github.com/justsurfingit/interview-scheduler/internal/middleware"
	"github.com/justsurfingit/interview-scheduler/internal/models"
)

type RouterConfig struct {
	Tokens      middleware.TokenVerifier
	Interviews  *InterviewHandler
	Calendar    *CalendarHandler
	CORSOrigins []string
	Log         *zap.Logger

	// Limiter is optional; nil disables rate limiting.
	Limiter *middleware.IPRateLimiter
}

// NewRouter registers the custom binding tags and wires every route under /api/v1.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	v, isValidator := binding.Validator.Engine().(*validator.Validate)
	if !isValidator {
		return nil, fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	if err := dtos.RegisterValidators(v); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(cfg.Log))

	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsCfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	r.Use(cors.New(corsCfg))
	if cfg.Limiter != nil {
		r.Use(middleware.RateLimit(cfg.Limiter))
	}

	api := r.Group("/api/v1")
	api.GET("/health", HealthCheck)

	authed := api.Group("")
	authed.Use(middleware.Auth(cfg.Tokens), middleware.Sanitize())

	recruiter := authed.Group("/recruiter", middleware.RequireRole(models.Recruiter{}))
	{
		recruiter.POST("/interviews", cfg.Interviews.Schedule)
		recruiter.GET("/interviews", cfg.Interviews.List)
		recruiter.PUT("/interviews/:interview_id", cfg.Interviews.Update)
		recruiter.DELETE("/interviews/:interview_id", cfg.Interviews.Delete)
		recruiter.GET("/interviews/:interview_id/events", cfg.Interviews.Events)
		recruiter.POST("/interviews/:interview_id/reminder", cfg.Interviews.SendReminder)
		recruiter.GET("/calendar", cfg.Calendar.Month)
		recruiter.GET("/calendar.ics", cfg.Calendar.ICS)
	}

	seeker := authed.Group("/jobseeker", middleware.RequireRole(models.JobSeeker{}))
	{
		seeker.GET("/interviews", cfg.Interviews.List)
		seeker.PUT("/interviews/:interview_id/status", cfg.Interviews.UpdateStatus)
		seeker.GET("/interviews/:interview_id/events", cfg.Interviews.Events)
		seeker.GET("/calendar", cfg.Calendar.Month)
		seeker.GET("/calendar.ics", cfg.Calendar.ICS)
	}

	admin := authed.Group("/admin", middleware.RequireRole(models.Admin{}))
	{
		admin.GET("/interviews", cfg.Interviews.List)
		admin.GET("/interviews/stats", cfg.Interviews.Stats)
		admin.GET("/calendar", cfg.Calendar.Month)
		admin.GET("/calendar.ics", cfg.Calendar.ICS)
	}

	return r, nil
}
