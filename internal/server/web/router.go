package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//go:embed templates/*.html
var templatesFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}

// NewRouter wires the routes, the middleware and the views. CORS is enabled
// only when corsOrigins is not empty.
func NewRouter(h *Handler, corsOrigins []string) (*gin.Engine, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	router.Use(h.recovery(), h.requestLogger())

	if len(corsOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = corsOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/", h.Index)
	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
	router.GET("/welcome", h.RequireSession(), h.Welcome)

	router.GET("/healthz", h.Healthz)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	return router, nil
}

// recovery turns a panic into the landing view with a generic reason so a
// single bad request never takes the process down.
func (h *Handler) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		h.logger.Error(c.Request.Context(), "panic while serving request",
			"path", c.Request.URL.Path, "panic", fmt.Sprint(recovered))

		c.HTML(http.StatusInternalServerError, landingTemplate,
			landingView{Error: errorOccurred(fmt.Sprint(recovered))})
		c.Abort()
	})
}

const requestIDHeader = "X-Request-ID"

// randHex is a test seam for common.MakeRandHexString.
var randHex = common.MakeRandHexString

// newRequestID falls back to a UUID when the random source fails.
func newRequestID() string {
	id, err := randHex(8)
	if err != nil {
		return uuid.NewString()
	}
	return id
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = newRequestID()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		h.metrics.RequestDuration.
			WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		h.logger.Debug(c.Request.Context(), "request served",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed,
		)
	}
}
