package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/studentenschaft/Biddit2-sub002/config"
	"github.com/studentenschaft/Biddit2-sub002/internal/api/handler"
	"github.com/studentenschaft/Biddit2-sub002/internal/api/middleware"
	"github.com/studentenschaft/Biddit2-sub002/internal/cache"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/pkg/jwt"
	"github.com/studentenschaft/Biddit2-sub002/pkg/redis"
)

// 限流：创建会话按 IP；提交评分与学习计划同步按用户
const (
	sessionRateLimit  = 10
	sessionRateWindow = time.Minute
	writeRateLimit    = 30
	writeRateWindow   = time.Minute
	maxBodyBytes      = 1 << 20
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时限流中间件放行，会话存储使用内存实现
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, sessions cache.SessionStore, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/session", middleware.RateLimit(rdb, sessionRateLimit, sessionRateWindow), h.Auth.CreateSession)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, sessions))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/session/refresh", h.Auth.RefreshSession)
			authorized.DELETE("/auth/session", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 学期模块
			semesters := authorized.Group("/semesters")
			{
				semesters.GET("", h.Semester.ListSemesters)
				semesters.GET("/current", h.Semester.GetCurrentSemester)
				semesters.GET("/:semester", h.Semester.GetSemester)
				semesters.POST("", middleware.RoleAuth(model.RoleAdmin), h.Semester.CreateSemester)
				semesters.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.Semester.UpdateSemester)
				semesters.PUT("/:id/activate", middleware.RoleAuth(model.RoleAdmin), h.Semester.ActivateSemester)
				semesters.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Semester.DeleteSemester)
			}

			// 学期课程视图
			authorized.GET("/courses/:semester", h.Course.GetSemesterState)

			// 选课模块
			selections := authorized.Group("/selections")
			{
				selections.POST("/toggle", h.Selection.ToggleCourse)
				selections.GET("/:semester", h.Selection.ListSelections)
				selections.POST("/:semester/sync", middleware.RateLimit(rdb, writeRateLimit, writeRateWindow), h.Selection.SyncStudyPlan)
			}

			// 成绩单模块
			transcript := authorized.Group("/transcript")
			{
				transcript.GET("", h.Transcript.GetTranscript)
				transcript.GET("/export", h.Export.ExportTranscript)
			}

			// 日历模块
			calendar := authorized.Group("/calendar")
			{
				calendar.GET("/:semester", h.Calendar.GetCalendar)
				calendar.GET("/:semester/day", h.Calendar.CoursesOnDay)
				calendar.GET("/:semester/ics", h.Calendar.ExportICS)
			}

			// 评分模块
			authorized.GET("/ratings", h.Rating.ListRatings)
			authorized.POST("/ratings", middleware.RateLimit(rdb, writeRateLimit, writeRateWindow), h.Rating.SubmitRating)

			// 界面开关
			authorized.GET("/flags", h.Flag.ListFlags)
			authorized.PUT("/flags/:key", h.Flag.SetFlag)
		}
	}

	return r
}
