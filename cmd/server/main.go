package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/config"
	"github.com/DH0263/dittonweb-sub000/internal/api/handler"
	"github.com/DH0263/dittonweb-sub000/internal/api/router"
	"github.com/DH0263/dittonweb-sub000/internal/dto"
	"github.com/DH0263/dittonweb-sub000/internal/jobs"
	"github.com/DH0263/dittonweb-sub000/internal/period"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
	"github.com/DH0263/dittonweb-sub000/internal/service"
	"github.com/DH0263/dittonweb-sub000/pkg/database"
	"github.com/DH0263/dittonweb-sub000/pkg/jwt"
	applogger "github.com/DH0263/dittonweb-sub000/pkg/logger"
	"github.com/DH0263/dittonweb-sub000/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认 ./config/config.yaml）")
	createStaff := flag.Bool("create-staff", false, "创建值班人员账号后退出")
	loginID := flag.String("login", "", "create-staff: 登录账号")
	name := flag.String("name", "", "create-staff: 姓名")
	password := flag.String("password", "", "create-staff: 密码（至少 8 位）")
	role := flag.String("role", "supervisor", "create-staff: 角色 admin | supervisor")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, "server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与巡查开始锁将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器与教时表
	jwtMgr := jwt.NewManager(&cfg.Auth)
	sched := period.FromConfig(&cfg.Supervision)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, rdb, jwtMgr, sched, logger)

	if *createStaff {
		staff, err := svc.Auth.CreateStaff(context.Background(), &dto.CreateStaffRequest{
			LoginID:  *loginID,
			Name:     *name,
			Password: *password,
			Role:     *role,
		})
		if err != nil {
			logger.Fatal("创建值班人员失败", zap.Error(err))
		}
		logger.Info("值班人员已创建", zap.Int64("id", staff.ID), zap.String("login_id", staff.LoginID))
		return
	}

	h := handler.NewHandler(svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 后台任务：每个新教时开始时将此前教时的迟到改为自习中
	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	if cfg.Supervision.LateConversionEnabled {
		jobs.NewLateConversion(svc.Attendance, sched, logger).Start(jobCtx)
	}

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	stopJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
