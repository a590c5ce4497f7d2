package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/findreq/internal/metrics"
	"github.com/matzehuels/findreq/pkg/buildinfo"
	ferrors "github.com/matzehuels/findreq/pkg/errors"
	"github.com/matzehuels/findreq/pkg/report"
	"github.com/matzehuels/findreq/pkg/scan"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	scanTimeout       = 2 * time.Minute
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		base    string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scans over HTTP",
		Long: `Serve starts an HTTP API:

  GET /scan?root=<dir>[&format=json|yaml|text][&missing_only=true]
  GET /healthz
  GET /metrics   (Prometheus)

Only directories below --base can be scanned; relative roots are resolved
against it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig(base)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Serve.Addr
			}
			if base == "" {
				base = cfg.ProjectRoot
			}
			if base, err = filepath.Abs(base); err != nil {
				return ferrors.Wrap(ferrors.ErrCodeInvalidPath, err, "resolve base %s", base)
			}

			svc, err := c.newServices(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			m := metrics.New()
			m.Register()

			srv := &server{
				logger:  c.Logger,
				opts:    svc.scanOptions(offline, false),
				base:    base,
				verb:    cfg.Install.Verb,
				metrics: m,
			}
			return srv.listen(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":8080\")")
	cmd.Flags().StringVar(&base, "base", "", "directory that scan roots must lie in (default: current directory)")
	cmd.Flags().BoolVar(&offline, "offline", false, "never query the package index")

	return cmd
}

// server answers HTTP scan requests.
type server struct {
	logger  *log.Logger
	opts    scan.Options
	base    string
	verb    string
	metrics *metrics.Metrics
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/scan", s.handleScan)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

func (s *server) listen(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "base", s.base)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logRequests attaches a request-scoped logger and logs each request.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With("req", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(withLogger(r.Context(), logger)))

		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	root, err := s.resolveRoot(q.Get("root"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	if !slices.Contains(report.Formats, format) {
		s.writeError(w, r, ferrors.New(ferrors.ErrCodeInvalidFormat, "unknown format %q", format))
		return
	}
	missingOnly, _ := strconv.ParseBool(q.Get("missing_only"))

	ctx, cancel := context.WithTimeout(r.Context(), scanTimeout)
	defer cancel()

	result, err := scan.New(s.opts, loggerFromContext(ctx)).Scan(ctx, root)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
	case "yaml":
		w.Header().Set("Content-Type", "application/yaml")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	opts := report.TextOptions{Verb: s.verb, MissingOnly: missingOnly}
	if err := report.Write(w, format, result, opts); err != nil {
		loggerFromContext(ctx).Warn("write response", "err", err)
	}
}

// resolveRoot maps a requested root onto an absolute directory inside base.
func (s *server) resolveRoot(root string) (string, error) {
	if root == "" {
		return s.base, nil
	}
	if err := ferrors.ValidatePath(root); err != nil {
		return "", err
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(s.base, root)
	}
	root = filepath.Clean(root)

	rel, err := filepath.Rel(s.base, root)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ferrors.New(ferrors.ErrCodeInvalidPath, "root %s is outside %s", root, s.base)
	}
	return root, nil
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := ferrors.HTTPStatus(err)
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		loggerFromContext(r.Context()).Error("scan failed", "err", err)
	}
	body := map[string]string{"error": ferrors.UserMessage(err)}
	if code := ferrors.GetCode(err); code != "" {
		body["code"] = string(code)
	}
	writeJSONResponse(w, status, body)
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
