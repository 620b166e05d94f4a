package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/config"
	"github.com/DH0263/dittonweb-sub000/internal/api/handler"
	"github.com/DH0263/dittonweb-sub000/internal/api/middleware"
	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/pkg/jwt"
	"github.com/DH0263/dittonweb-sub000/pkg/redis"
)

// maxBodyBytes 单次请求体上限（批量提交约 100 名学生，远小于此值）
const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/health", "/metrics"))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, time.Minute, logger), h.Auth.Login)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 监督面板
			authorized.GET("/supervision/current-status", h.Supervision.CurrentStatus)

			// 出勤
			attendance := authorized.Group("/attendance-records")
			{
				attendance.GET("/today/by-period", h.Attendance.TodayByPeriod)
				attendance.POST("/period/bulk", h.Attendance.BulkUpsert)
				attendance.GET("/check-completion/:period", h.Attendance.Completion)
			}

			// 手机上交
			phone := authorized.Group("/phone-submissions")
			{
				phone.GET("/today/by-period", h.Phone.TodayByPeriod)
				phone.POST("/period/bulk", h.Phone.BulkUpsert)
			}

			// 在校标记
			school := authorized.Group("/school-attendance")
			{
				school.GET("/today", h.School.Today)
				school.POST("/:student_id", h.School.Mark)
				school.DELETE("/:student_id", h.School.Unmark)
			}

			// 巡查
			patrols := authorized.Group("/patrols")
			{
				patrols.POST("/start", h.Patrol.Start)
				patrols.GET("/current", h.Patrol.Current)
				patrols.GET("", h.Patrol.List)
				patrols.POST("/:id/end", h.Patrol.End)
				patrols.POST("/:id/force-end", h.Patrol.ForceEnd)
			}

			// 态度检查
			checks := authorized.Group("/attitude-checks")
			{
				checks.POST("", h.AttitudeCheck.Create)
				checks.GET("/today", h.AttitudeCheck.Today)
				checks.GET("/patrol/:patrol_id", h.AttitudeCheck.ListByPatrol)
				checks.DELETE("/:id", h.AttitudeCheck.Delete)
			}

			// 教时
			system := authorized.Group("/system")
			{
				system.GET("/current-period", h.System.CurrentPeriod)
				system.GET("/periods", h.System.Periods)
				system.GET("/periods/calendar.ics", h.System.Calendar)
			}

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/daily", middleware.RoleAuth(model.RoleAdmin, model.RoleSupervisor), h.Export.ExportDaily)
			}
		}
	}

	return r
}
