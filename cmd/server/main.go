package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mindcare-id/mindcare/internal/api"
	"github.com/mindcare-id/mindcare/internal/config"
	dbstore "github.com/mindcare-id/mindcare/internal/db"
	"github.com/mindcare-id/mindcare/internal/middleware"
	"github.com/mindcare-id/mindcare/internal/services"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	middleware.SetSecret(cfg.JWTSecret)

	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(cfg.DBPath))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		logger.Fatal("open sqlite", zap.Error(err))
	}
	defer func() { _ = sqliteDB.Close() }()

	if err := dbstore.RunMigrations(sqliteDB, cfg.MigrationsDir); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	store, err := dbstore.NewSQLiteStore(sqliteDB, logger)
	if err != nil {
		logger.Fatal("init store", zap.Error(err))
	}
	if cfg.SeedQuestions {
		if err := store.SeedQuestions(); err != nil {
			logger.Fatal("seed questions", zap.Error(err))
		}
	}

	authSvc := services.NewAuthService(store, middleware.SignToken, cfg.TokenTTL)
	router := api.NewRouter(
		authSvc,
		services.NewAssessmentService(store),
		services.NewQuestionService(store),
		services.NewChatService(store),
		services.NewMoodService(store),
		services.NewDashboardService(store),
		logger,
	)

	mux := http.NewServeMux()
	router.Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "name": "MindCare API"})
	})

	handler := middleware.NoStore(middleware.SecureHeaders(middleware.CORS(middleware.WithAuth(mux))))

	logger.Info("server listening", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBPath))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapLevel)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{"stdout"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}
