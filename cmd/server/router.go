package main

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Skufu/symptom-checker/internal/diagnosis"
	"github.com/Skufu/symptom-checker/internal/validator"
)

//go:embed templates/*.html
var templateFS embed.FS

const loggerKey = "logger"

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Diagnoser is the part of the diagnosis engine the handlers use.
type Diagnoser interface {
	HealthChecker
	Symptoms() []string
	Diagnose(selected []string) (diagnosis.Report, diagnosis.Trace)
}

type predictRequest struct {
	Symptoms []string `json:"symptoms"`
}

func setupRouter(svc Diagnoser, logger *logrus.Logger, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(
		requestID(),
		requestLogger(logger),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders: []string{"X-Request-ID", "X-Prediction-Validated", "X-Prediction-Outcome"},
			MaxAge:        12 * time.Hour,
		}),
	)

	router.SetHTMLTemplate(template.Must(template.New("").Funcs(template.FuncMap{
		"humanize": humanize,
	}).ParseFS(templateFS, "templates/*.html")))

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{"symptoms": svc.Symptoms()})
	})

	router.POST("/predict", func(c *gin.Context) {
		report := diagnose(c, svc, c.PostFormArray("symptoms"))
		c.HTML(http.StatusOK, "result.html", gin.H{"report": report})
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := svc.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"engine": fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"engine":   "ok",
			"symptoms": len(svc.Symptoms()),
		})
	})

	api := router.Group("/api")
	{
		api.GET("/symptoms", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"symptoms": svc.Symptoms()})
		})

		api.POST("/predict", func(c *gin.Context) {
			var payload predictRequest
			if err := c.ShouldBindJSON(&payload); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
				return
			}

			c.JSON(http.StatusOK, diagnose(c, svc, payload.Symptoms))
		})
	}

	return router
}

// diagnose runs one prediction, logs how it was reached and exposes the
// validation result as headers.
func diagnose(c *gin.Context, svc Diagnoser, raw []string) diagnosis.Report {
	report, trace := svc.Diagnose(normalizeSelection(raw))
	entry := logEntry(c).WithField("matched", trace.Matched)

	if trace.Err != nil {
		entry.WithError(trace.Err).Info("symptom selection rejected")
		return report
	}

	c.Header("X-Prediction-Validated", strconv.FormatBool(trace.Accepted))
	c.Header("X-Prediction-Outcome", string(trace.Outcome))

	entry = entry.WithFields(logrus.Fields{
		"raw_prediction": trace.RawPrediction,
		"prediction":     report.Disease,
		"probability":    trace.Probability,
		"accepted":       trace.Accepted,
		"outcome":        trace.Outcome,
	})
	switch trace.Outcome {
	case validator.Unsupported:
		entry.Warn("no training case supports the selection; returning raw prediction")
	case validator.Fallback:
		entry.Info("no exact training case; keeping raw prediction")
	default:
		entry.Info("prediction served")
	}
	return report
}

// normalizeSelection trims names, splits comma separated values and drops
// blanks. Case is kept: symptom names match exactly.
func normalizeSelection(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, t := range strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ';'
		}) {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func humanize(symptom string) string {
	return strings.TrimSpace(strings.ReplaceAll(symptom, "_", " "))
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := logger.WithField("request_id", c.GetString("request_id"))
		c.Set(loggerKey, entry)

		c.Next()

		entry.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"client":   c.ClientIP(),
		}).Debug("request handled")
	}
}

func logEntry(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
