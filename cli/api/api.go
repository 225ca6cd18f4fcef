package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/cors"

	"github.com/oaiiae/huma-phonebook/cli/seed"
	"github.com/oaiiae/huma-phonebook/datastores"
	"github.com/oaiiae/huma-phonebook/handlers"
	"github.com/oaiiae/huma-phonebook/router"
	"github.com/oaiiae/huma-phonebook/services"
)

type ServerOptions struct {
	Host              string        `short:"H" doc:"host to listen on"                       default:""`
	Port              int           `short:"p" doc:"port to listen on"                       default:"5000"`
	ReadHeaderTimeout time.Duration `          doc:"time allowed to read request headers"    default:"15s"`
	ShutdownTimeout   time.Duration `          doc:"time allowed to finish pending requests" default:"1m"`
}

// NewServer returns a server without a handler; it is set once the
// record store is open.
func NewServer(options *ServerOptions, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		ReadHeaderTimeout: options.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.With("component", "http").Handler(), slog.LevelError),
	}
}

type RouterOptions struct {
	EndpointsPrefix string `doc:"mount endpoints at a prefix"                      default:"/api"`
	StaticDir       string `doc:"serve a front-end from this directory"            default:""`
	CORSOrigins     string `doc:"comma separated origins allowed, * for any origin" default:"*"`
}

func NewRouter(
	options *RouterOptions,
	title string,
	version string,
	revision string,
	created string,
	logger *slog.Logger,
	store datastores.RecordStore,
	contacts *services.Contacts,
	calls *services.Calls,
	metriks *metrics.Set,
	opts ...func(huma.API),
) http.Handler {
	buildinfo := fmt.Sprintf("build_info{goversion=%q,title=%q,version=%q,revision=%q,created=%q} 1\n",
		runtime.Version(), title, version, revision, created)
	reportError := reportErrors(logger, metriks)

	mux := router.New(title, version,
		func(w http.ResponseWriter, r *http.Request) {
			err := store.Ping(r.Context())
			if err != nil {
				logger.LogAttrs(r.Context(), slog.LevelWarn, "not ready", slog.Any("err", err))
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		},
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, buildinfo)
			metriks.WritePrometheus(w)
			metrics.WriteProcessMetrics(w)
		},
		append([]func(huma.API){
			router.OptUseMiddleware(
				logRequests(logger),
				meterRequests(metriks),
				recoverPanics(logger, metriks),
			),
			router.OptGroup(options.EndpointsPrefix,
				router.OptAutoRegister(&handlers.Contacts{Service: contacts, ErrorHandler: reportError}),
				router.OptAutoRegister(&handlers.Calls{Service: calls, Contacts: contacts, ErrorHandler: reportError}),
			),
		}, opts...)...,
	)
	if options.StaticDir != "" {
		mux.Handle("/", router.Static(options.StaticDir))
	}
	if options.CORSOrigins == "" {
		return mux
	}
	return cors.New(cors.Options{
		AllowedOrigins: splitList(options.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	}).Handler(mux)
}

func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

type StoreOptions struct {
	StoreDriver string `doc:"store records in file, sqlite or memory"           default:"file"`
	StorePath   string `doc:"data directory for file, database file for sqlite" default:"data"`
	Seed        string `doc:"import contacts from a TOML file into an empty directory"`
}

// NewStore opens the record store selected by options, metered into set.
func NewStore(options *StoreOptions, set *metrics.Set) (datastores.RecordStore, error) {
	var (
		store datastores.RecordStore
		err   error
	)
	switch strings.ToLower(options.StoreDriver) {
	case "", "file":
		store, err = datastores.OpenFiles(options.StorePath)
	case "sqlite":
		store, err = datastores.OpenSQLite(options.StorePath)
	case "memory":
		store = datastores.NewInmem()
	default:
		return nil, errors.New("unknown store driver: " + options.StoreDriver)
	}
	if err != nil {
		return nil, err
	}
	return datastores.NewMetered(store, set), nil
}

// SeedContacts imports options.Seed, if set, into an empty directory.
func SeedContacts(ctx context.Context, options *StoreOptions, contacts *services.Contacts, logger *slog.Logger) error {
	if options.Seed == "" {
		return nil
	}
	file, err := seed.Load(options.Seed)
	if err != nil {
		return err
	}
	n, err := seed.Import(ctx, file, contacts)
	if err != nil {
		return err
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "contacts seeded", slog.String("file", options.Seed), slog.Int("count", n))
	return nil
}

// opLogger is the context key of the logger of the running operation.
type opLogger struct{}

func loggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(opLogger{}).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// logRequests puts an operation logger in the context and logs every
// request once answered. Operations on a single contact log its id.
func logRequests(parent *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		logger := parent.With(
			slog.String("request", ctx.Header("X-Request-Id")),
			slog.String("op", op.OperationID),
		)
		if id := ctx.Param("id"); id != "" {
			logger = logger.With(slog.String("id", id))
		}

		start := time.Now()
		next(huma.WithValue(ctx, opLogger{}, logger))

		logger.LogAttrs(context.Background(), slog.LevelInfo, op.Method+" "+op.Path,
			slog.Int("status", ctx.Status()),
			slog.Duration("dur", time.Since(start)),
			slog.String("from", ctx.RemoteAddr()),
			slog.String("ua", ctx.Header("User-Agent")),
		)
	}
}

// recoverPanics answers 500 to operations that panic.
func recoverPanics(fallback *slog.Logger, set *metrics.Set) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			set.GetOrCreateCounter(`phonebook_panics_total`).Inc()
			loggerFrom(ctx.Context(), fallback).LogAttrs(context.Background(), slog.LevelError,
				"panic occurred", slog.Any("recovered", v))
			ctx.SetStatus(http.StatusInternalServerError)
		}()
		next(ctx)
	}
}

// errorKind names the class of a failed operation.
func errorKind(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "validation"
	case errors.Is(err, services.ErrNotFound):
		return "not_found"
	case errors.Is(err, datastores.ErrUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}

// reportErrors logs and counts operation errors by kind. Client
// mistakes are warnings, storage and internal failures are errors.
func reportErrors(fallback *slog.Logger, set *metrics.Set) func(context.Context, error) {
	return func(ctx context.Context, err error) {
		kind := errorKind(err)
		set.GetOrCreateCounter(`phonebook_errors_total{kind="` + kind + `"}`).Inc()

		level := slog.LevelError
		if kind == "validation" || kind == "not_found" {
			level = slog.LevelWarn
		}
		attrs := []slog.Attr{slog.String("kind", kind), slog.Any("err", err)}
		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			attrs = append(attrs, slog.Int("status", statusErr.GetStatus()))
		}
		loggerFrom(ctx, fallback).LogAttrs(context.Background(), level, "operation failed", attrs...)
	}
}

var requestBuckets = metrics.ExponentialBuckets(1e-3, 5, 6) //nolint: gochecknoglobals,mnd // arbitrary

// meterRequests counts requests and their durations per operation and status.
func meterRequests(set *metrics.Set) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		next(ctx)

		op := ctx.Operation()
		labels := fmt.Sprintf(`{method=%q,path=%q,status="%d"}`, op.Method, op.Path, ctx.Status())
		set.GetOrCreateCounter(`http_requests_total` + labels).Inc()
		set.GetOrCreatePrometheusHistogramExt(`http_request_duration_seconds`+labels, requestBuckets).UpdateDuration(start)
	}
}
