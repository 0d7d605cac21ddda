// DingBan 排班分配引擎服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dingban/dingban/internal/config"
	"github.com/dingban/dingban/internal/database"
	"github.com/dingban/dingban/internal/handler"
	"github.com/dingban/dingban/internal/metrics"
	"github.com/dingban/dingban/internal/middleware"
	"github.com/dingban/dingban/internal/security"
	"github.com/dingban/dingban/internal/tenant"
	"github.com/dingban/dingban/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 加载 .env（不存在时忽略）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logFormat := "console"
	if cfg.IsProduction() {
		logFormat = "json"
	}
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: logFormat,
	})

	// 打印版本信息
	fmt.Printf("DingBan 排班分配引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 连接数据库。连接失败时降级为纯无状态模式，
	// 规划、冲突检测、换班评估等快照式接口不依赖持久化层。
	var db *database.DB
	db, err = database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库不可用，花名册接口已禁用")
		db = nil
	} else {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Migrate(migrateCtx); err != nil {
			cancel()
			logger.Error().Err(err).Msg("数据库迁移失败")
			os.Exit(1)
		}
		cancel()
	}

	// 租户注册表与规划运行锁
	tenants := tenant.NewManager()
	defaultTenant := tenant.CreateDefaultTenant()
	if err := tenants.Register(defaultTenant); err != nil {
		logger.Error().Err(err).Msg("注册默认租户失败")
		os.Exit(1)
	}

	// API密钥与限流
	keyManager := security.NewAPIKeyManager()
	rateLimiter := security.NewRateLimiter(cfg.API.RateLimit, time.Minute)

	// 开发环境生成默认租户的引导密钥
	if cfg.IsDevelopment() {
		key, err := keyManager.GenerateKey(defaultTenant.Code, "bootstrap", []string{"*"}, nil)
		if err != nil {
			logger.Error().Err(err).Msg("生成引导密钥失败")
			os.Exit(1)
		}
		logger.Info().Str("api_key", key.Key).Str("tenant", defaultTenant.Code).Msg("开发环境引导密钥")
	}

	// 创建处理器
	planHandler := handler.NewPlanHandler(cfg, tenants)
	conflictHandler := handler.NewConflictHandler(cfg)
	swapHandler := handler.NewSwapHandler(cfg)
	statsHandler := handler.NewStatsHandler()
	catalogHandler := handler.NewCatalogHandler()

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		dbStatus := "disabled"
		if db != nil {
			dbStatus = "ok"
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				status = "degraded"
				dbStatus = "down"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"%s","service":"dingban","database":"%s"}`, status, dbStatus)
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "DingBan 排班分配引擎 API v1",
			"endpoints": {
				"plan": {
					"run": "POST /api/v1/plan/run",
					"suggest": "POST /api/v1/plan/suggest",
					"snapshot": "POST /api/v1/plan/snapshot",
					"commit": "POST /api/v1/plan/commit"
				},
				"conflicts": {
					"detect": "POST /api/v1/conflicts/detect"
				},
				"swap": {
					"evaluate": "POST /api/v1/swap/evaluate",
					"recommend": "POST /api/v1/swap/recommend"
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness",
					"coverage": "POST /api/v1/stats/coverage"
				},
				"constraints": {
					"catalog": "GET /api/v1/constraints/catalog"
				}
			}
		}`))
	})

	// 排班规划 API
	mux.HandleFunc("/api/v1/plan/run", planHandler.Run)
	mux.HandleFunc("/api/v1/plan/suggest", planHandler.Suggest)

	// 冲突检测 API
	mux.HandleFunc("/api/v1/conflicts/detect", conflictHandler.Detect)

	// 换班 API
	mux.HandleFunc("/api/v1/swap/evaluate", swapHandler.Evaluate)
	mux.HandleFunc("/api/v1/swap/recommend", swapHandler.Recommend)

	// 统计分析 API
	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.Fairness)
	mux.HandleFunc("/api/v1/stats/coverage", statsHandler.Coverage)

	// 约束库 API
	mux.HandleFunc("/api/v1/constraints/catalog", catalogHandler.Get)

	// ========================================
	// 花名册 API（需要数据库）
	// ========================================

	if db != nil {
		rosterHandler := handler.NewRosterHandler(db)

		mux.HandleFunc("/api/v1/companies/create", rosterHandler.CreateCompany)
		mux.HandleFunc("/api/v1/companies/list", rosterHandler.ListCompanies)

		mux.HandleFunc("/api/v1/employees/save", rosterHandler.SaveEmployee)
		mux.HandleFunc("/api/v1/employees/delete", rosterHandler.DeleteEmployee)
		mux.HandleFunc("/api/v1/employees/list", rosterHandler.ListEmployees)

		mux.HandleFunc("/api/v1/shifts/save", rosterHandler.SaveShift)
		mux.HandleFunc("/api/v1/shifts/delete", rosterHandler.DeleteShift)
		mux.HandleFunc("/api/v1/shifts/list", rosterHandler.ListShifts)

		mux.HandleFunc("/api/v1/availability/create", rosterHandler.CreateWindow)
		mux.HandleFunc("/api/v1/availability/delete", rosterHandler.DeleteWindow)
		mux.HandleFunc("/api/v1/availability/list", rosterHandler.ListWindows)

		mux.HandleFunc("/api/v1/assignments/subscribe", rosterHandler.Subscribe)
		mux.HandleFunc("/api/v1/assignments/confirm", rosterHandler.Confirm)
		mux.HandleFunc("/api/v1/assignments/cancel", rosterHandler.Cancel)
		mux.HandleFunc("/api/v1/assignments/reassign", rosterHandler.Reassign)
		mux.HandleFunc("/api/v1/assignments/list", rosterHandler.ListAssignments)

		// 规划快照读取与结果落库
		mux.HandleFunc("/api/v1/plan/snapshot", rosterHandler.Snapshot)
		mux.HandleFunc("/api/v1/plan/commit", rosterHandler.Commit)
	}

	// ========================================
	// 监控端点
	// ========================================

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 认证：生产环境强制开启，其余环境通过 AUTH_ENABLED 控制
	authEnabled := cfg.IsProduction() || os.Getenv("AUTH_ENABLED") == "true"

	var root http.Handler = metricsMiddleware(mux)
	if authEnabled {
		auth := middleware.Auth(&middleware.AuthConfig{
			APIKeyManager:   keyManager,
			TenantManager:   tenants,
			RateLimiter:     rateLimiter,
			SkipPaths:       []string{"/health", "/version", cfg.Metrics.Path},
			EnableRateLimit: true,
		})
		root = auth(root)
	}
	root = middleware.Recovery(middleware.RequestID(middleware.SecurityHeaders(middleware.Logging(root))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("env", cfg.App.Env).
			Str("version", Version).
			Bool("auth", authEnabled).
			Bool("persistence", db != nil).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	if db != nil {
		db.Close()
	}

	logger.Info().Msg("服务器已关闭")
}

// metricsMiddleware 记录请求指标
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		metrics.RecordRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
