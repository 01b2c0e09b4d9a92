// Command server serves the symptom checker over HTTP.
//
// The classifier is not fitted at startup. From a fresh checkout, write the
// model once before starting the server:
//
//	go run ./cmd/train
//	go run ./cmd/server
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Skufu/symptom-checker/internal/dataset"
	"github.com/Skufu/symptom-checker/internal/diagnosis"
)

type Config struct {
	Port        string
	Debug       bool
	DataDir     string
	ModelPath   string
	LabelColumn string
	LogLevel    string
	LogFormat   string
	CORSOrigins []string
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg)
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := diagnosis.Load(diagnosis.Paths{
		DataDir:     cfg.DataDir,
		ModelPath:   cfg.ModelPath,
		LabelColumn: cfg.LabelColumn,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to load diagnosis data")
	}

	router := setupRouter(engine, logger, cfg.CORSOrigins)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":     cfg.Port,
		"debug":    cfg.Debug,
		"data_dir": cfg.DataDir,
	}).Info("server listening")
	waitForShutdown(server, logger)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		Debug:       strings.EqualFold(getEnv("DEBUG", "false"), "true"),
		DataDir:     os.Getenv("DATA_DIR"),
		ModelPath:   os.Getenv("MODEL_PATH"),
		LabelColumn: getEnv("LABEL_COLUMN", dataset.DefaultLabelColumn),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "text")),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	defaultLevel := "info"
	if cfg.Debug {
		defaultLevel = "debug"
	}
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", defaultLevel))
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	for _, origin := range cfg.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return nil, fmt.Errorf("invalid CORS_ORIGINS entry %q: want * or an http:// or https:// origin", origin)
		}
	}

	if cfg.DataDir == "" {
		cfg.DataDir = detectDataDir("dataset")
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = filepath.Join(cfg.DataDir, "model.json")
	}

	return cfg, nil
}

func newLogger(cfg *Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}
	return logger
}

func waitForShutdown(server *http.Server, logger *logrus.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(text string) []string {
	out := []string{}
	for _, t := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// detectDataDir finds name next to the working directory or up to two levels
// above it, so the server runs from the repository root or from cmd/server.
func detectDataDir(name string) string {
	startDir, err := os.Getwd()
	if err != nil {
		return name
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		path := filepath.Join(dir, name)
		if fileExists(filepath.Join(path, diagnosis.TrainingFile)) {
			return path
		}
	}

	return filepath.Join(startDir, name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
