package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/studentenschaft/Biddit2-sub002/internal/api/handler"
	"github.com/studentenschaft/Biddit2-sub002/internal/api/router"
	"github.com/studentenschaft/Biddit2-sub002/internal/cache"
	"github.com/studentenschaft/Biddit2-sub002/internal/client"
	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
	"github.com/studentenschaft/Biddit2-sub002/internal/service"
	"github.com/studentenschaft/Biddit2-sub002/internal/session"
	pkgerrors "github.com/studentenschaft/Biddit2-sub002/pkg/errors"
	"github.com/studentenschaft/Biddit2-sub002/pkg/events"
	"github.com/studentenschaft/Biddit2-sub002/pkg/jwt"
	"github.com/studentenschaft/Biddit2-sub002/pkg/redis"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// 1. 配置 / 日志 / 数据库
	cfg, logger, db, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer closeDB(db)

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 2. 连接 Redis（可选：连接失败时降级为进程内存储，不中断启动）
	var (
		rdb      *redis.Client
		sessions cache.SessionStore
		catalog  cache.CatalogCache
	)
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，会话与课程目录缓存降级为进程内存储", zap.Error(err))
		rdb = nil
		sessions = cache.NewMemorySessionStore()
		catalog = cache.NewMemoryCatalogCache(cfg.Upstream.CatalogTTL)
	} else {
		sessions = rdb
		catalog = cache.NewRedisCatalogCache(rdb, cfg.Upstream.CatalogTTL)
	}

	// 3. JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 4. 会话失效：连续刷新失败达到阈值后作废会话
	bus := events.NewBus[session.Expired]()
	tracker := session.NewTracker(cfg.Session.MaxRefreshFailures, bus)
	sub := bus.Subscribe(func(e session.Expired) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := sessions.BlacklistToken(ctx, e.SessionID, jwtMgr.AccessTokenTTL()); err != nil {
			logger.Error("会话加入黑名单失败", zap.String("user_id", e.UserID), zap.Error(err))
		}
		if err := sessions.DeleteUpstreamToken(ctx, e.SessionID); err != nil {
			logger.Warn("删除上游 Token 失败", zap.String("user_id", e.UserID), zap.Error(err))
		}
		logger.Info("会话已失效",
			zap.String("user_id", e.UserID),
			zap.Int("failures", e.Failures),
		)
	})
	defer sub.Unsubscribe()

	// 5. 上游客户端
	courseAPI := client.NewCourseAPI(&cfg.Upstream.CourseAPI, &http.Client{Timeout: cfg.Upstream.CourseAPI.Timeout})
	studyPlanAPI := client.NewStudyPlanAPI(&cfg.Upstream.StudyPlanAPI, &http.Client{Timeout: cfg.Upstream.StudyPlanAPI.Timeout})

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, service.Deps{
		CourseAPI:    courseAPI,
		StudyPlanAPI: studyPlanAPI,
		Catalog:      catalog,
		Sessions:     sessions,
		Tracker:      tracker,
		Reporter:     pkgerrors.NewZapReporter(logger),
	}, logger)
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, sessions, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // 学期视图需等待多个上游接口
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
	return nil
}
