// Package web - request board web surface
package web

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/requestboard/store"
	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOpts holds the dependencies of the request board routes.
type RouterOpts struct {
	// Sessions boards of the browser sessions
	Sessions *SessionBoards
	// Gatherer metrics source of /metrics. The route is omitted when nil.
	Gatherer prometheus.Gatherer
	// Events audit trail of the Record Store. The events route is omitted when nil.
	Events store.EventLog
	// AccessLogLevel level of the access log lines. Defaults to debug.
	AccessLogLevel goutils.HTTPRequestLogLevel
}

// StartOpts holds configuration for the web server.
type StartOpts struct {
	RouterOpts
	// Listen address to bind to
	Listen string
	// ShutdownTimeout grace period for in-flight requests on shutdown
	ShutdownTimeout time.Duration
	// Out where the startup banner is written. Optional.
	Out io.Writer
}

/*
NewRouter define the handler serving the request board: the gin router wrapped with request
ID tracking and access logging

	@param opts RouterOpts - router dependencies
	@returns the handler
*/
func NewRouter(opts RouterOpts) (http.Handler, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("web: session boards are required")
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}

	component := goutils.Component{
		LogTags: log.Fields{"module": "web", "component": "router"},
		LogTagModifiers: []goutils.LogMetadataModifier{
			goutils.ModifyLogMetadataByRestRequestParam,
		},
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	if err := registerRoutes(router, opts, component); err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}

	if opts.AccessLogLevel == "" {
		opts.AccessLogLevel = goutils.HTTPLogLevelDEBUG
	}
	requestIDHeader := headerRequestID
	accessLog := goutils.RestAPIHandler{
		Component:                component,
		CallRequestIDHeaderField: &requestIDHeader,
		DoNotLogHeaders: map[string]bool{
			"Cookie": true, "Authorization": true, "Apikey": true,
		},
		LogLevel: opts.AccessLogLevel,
	}

	return accessLog.LoggingMiddleware(router.ServeHTTP), nil
}

// Start launches the web server. It blocks until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Listen == "" {
		opts.Listen = ":8080"
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts.RouterOpts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              opts.Listen,
		Handler:           router,
		ReadHeaderTimeout: time.Second * 10,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx := context.Background()
		if opts.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, opts.ShutdownTimeout)
			defer cancel()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Web server shutdown failed")
		}
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Request board running at %s\n", opts.Listen)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"since":     formatSince,
		"timestamp": formatTimestamp,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

func formatSince(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05 MST")
}

// registerRoutes sets up all routes on the gin router.
func registerRoutes(router *gin.Engine, opts RouterOpts, component goutils.Component) error {
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": opts.Sessions.Len()})
	})
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	h := boardHandlers{Component: component}

	boards := router.Group("/", sessionMiddleware(opts.Sessions))
	boards.GET("/", h.renderPage)
	boards.GET("/api/board", h.getBoard)
	boards.POST("/refresh", h.refresh)
	boards.POST("/requests", h.submit)
	boards.POST("/requests/:id/edit", h.startEdit)
	boards.POST("/requests/:id/save", h.saveEdit)
	boards.POST("/requests/:id/cancel", h.cancelEdit)
	boards.POST("/requests/:id/delete", h.deleteRequest)

	if opts.Events != nil {
		events, err := newEventHandlers(component, opts.Events)
		if err != nil {
			return err
		}
		router.GET("/api/requests/:id/events", events.listEvents)
	}

	return nil
}
