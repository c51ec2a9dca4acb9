package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"SiteForge/internal/collab"
	"SiteForge/internal/config"
	"SiteForge/internal/infrastructure/audit"
	"SiteForge/internal/infrastructure/components"
	"SiteForge/internal/infrastructure/llm"
	"SiteForge/internal/infrastructure/notify"
	"SiteForge/internal/infrastructure/scheduler"
	"SiteForge/internal/infrastructure/storage"
	"SiteForge/internal/logging"
	"SiteForge/internal/metrics"
	"SiteForge/internal/ports"
	"SiteForge/internal/templates"
	"SiteForge/internal/transport/httpapi"
	"SiteForge/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	templates *templates.Registry
	store     ports.ArtifactStore
	rooms     *collab.Registry
	synth     *usecase.Synthesizer
	pages     *usecase.Pages
	janitor   *usecase.Janitor
	auditor   *audit.Scorer
	nc        *nats.Conn
	closers   []func() error
}

// New builds every component named in configuration. Close releases what it opened.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		metrics: metrics.New(),
	}

	registry, err := LoadTemplates(cfg)
	if err != nil {
		return nil, err
	}
	a.templates = registry

	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// LoadTemplates returns the built-in templates plus those in the configured file.
func LoadTemplates(cfg config.Config) (*templates.Registry, error) {
	registry := templates.NewDefaultRegistry()
	if cfg.Templates.File != "" {
		if err := registry.LoadFile(cfg.Templates.File); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (a *Application) build(ctx context.Context) error {
	cfg := a.cfg

	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}
	generator := llm.NewClient(provider, cfg.LLM, a.component("llm."+provider.Name()), a.metrics)

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.store = store

	var catalog ports.ComponentCatalog
	if cfg.Components.BaseURL != "" {
		catalog = components.NewClient(cfg.Components.BaseURL, cfg.Components.APIKey, cfg.Components.PageSize, nil, a.component("components"))
	}

	var scorer ports.Scorer = usecase.HeuristicScorer{}
	if cfg.Audit.Endpoint != "" {
		a.auditor = audit.NewScorer(store, audit.NewClient(cfg.Audit.Endpoint, cfg.Audit.APIKey, nil), cfg.Audit.PublicBaseURL, a.component("audit"))
		scorer = a.auditor
	}

	a.rooms = collab.NewRegistry(a.component("collab"), a.metrics)
	notifier, err := a.notifier()
	if err != nil {
		return err
	}

	resolver := usecase.NewResolver(usecase.ResolverDeps{
		Generator:             generator,
		Logger:                a.component("resolver"),
		Metrics:               a.metrics,
		SectionTokens:         cfg.LLM.SectionTokens,
		Concurrency:           cfg.Quality.Concurrency,
		GenerateOnFailedAdapt: cfg.Quality.GenerateOnFailedAdapt,
	})
	gate := usecase.NewGate(usecase.GateDeps{
		Resolver:    resolver,
		Assembler:   usecase.NewAssembler(cfg.Site.CanonicalPattern),
		Scorer:      scorer,
		Threshold:   cfg.Quality.Threshold,
		MaxAttempts: cfg.Quality.MaxAttempts,
		Strict:      cfg.Quality.Strict,
		Logger:      a.component("quality"),
		Metrics:     a.metrics,
	})
	a.synth = usecase.NewSynthesizer(usecase.SynthesizerDeps{
		Templates: a.templates,
		Catalog:   catalog,
		Store:     store,
		Gate:      gate,
		Logger:    a.component("synthesizer"),
		Metrics:   a.metrics,
	})
	a.pages = usecase.NewPages(usecase.PagesDeps{
		Store: store,
		Enhancer: usecase.NewEnhancer(usecase.EnhancerDeps{
			Generator: generator,
			MaxTokens: cfg.Enhancer.MaxTokens,
			Enabled:   cfg.Enhancer.Enabled,
			Logger:    a.component("enhancer"),
			Metrics:   a.metrics,
		}),
		Notifier: notifier,
		Logger:   a.component("pages"),
		Metrics:  a.metrics,
	})
	a.janitor = usecase.NewJanitor(scheduler.NewTickerScheduler(cfg.Janitor.Interval), store, cfg.Janitor.TTL, a.component("janitor"), a.metrics)
	return nil
}

func (a *Application) component(name string) *slog.Logger {
	return a.logger.With("component", name)
}

func (a *Application) openStore(ctx context.Context) (ports.ArtifactStore, error) {
	cfg := a.cfg.Storage
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		db, err := storage.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return storage.NewSQLStore(db), nil
	case "jetstream":
		nc, err := a.natsConn()
		if err != nil {
			return nil, err
		}
		js, err := jetstream.New(nc)
		if err != nil {
			return nil, fmt.Errorf("jetstream: %w", err)
		}
		return storage.NewJetStreamStore(ctx, js, cfg.Bucket)
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (a *Application) notifier() (ports.SaveNotifier, error) {
	cfg := a.cfg.Collab
	switch strings.ToLower(cfg.Notifier) {
	case "", "local":
		return collab.NewLocalNotifier(a.rooms), nil
	case "http":
		if cfg.BroadcastURL == "" {
			return nil, errors.New("collab.broadcastUrl is required for the http notifier")
		}
		return notify.NewHTTPNotifier(cfg.BroadcastURL, a.cfg.Server.InternalToken, nil), nil
	case "nats":
		nc, err := a.natsConn()
		if err != nil {
			return nil, err
		}
		return notify.NewNATSNotifier(nc, cfg.Subject), nil
	default:
		return nil, fmt.Errorf("unknown collab notifier %q", cfg.Notifier)
	}
}

// natsConn dials once and is shared by the store and the notifier.
func (a *Application) natsConn() (*nats.Conn, error) {
	if a.nc != nil {
		return a.nc, nil
	}
	url := a.cfg.Storage.NATSURL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, nats.Name("siteforge"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	a.nc = nc
	a.closers = append(a.closers, func() error {
		nc.Close()
		return nil
	})
	return nc, nil
}

// Synthesizer exposes the page synthesis use case to the CLI.
func (a *Application) Synthesizer() *usecase.Synthesizer {
	return a.synth
}

// Templates exposes the template registry.
func (a *Application) Templates() *templates.Registry {
	return a.templates
}

// Serve runs the HTTP API, the janitor and the save subscription until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.janitor.Start(ctx); err != nil {
		return fmt.Errorf("start janitor: %w", err)
	}

	if a.nc != nil && strings.EqualFold(a.cfg.Collab.Notifier, "nats") {
		if _, err := notify.Subscribe(ctx, a.nc, a.cfg.Collab.Subject, a.rooms, a.component("notify")); err != nil {
			return err
		}
	}

	api := httpapi.NewServer(httpapi.Deps{
		Synthesizer:   a.synth,
		Pages:         a.pages,
		Rooms:         a.rooms,
		Metrics:       a.metrics,
		Logger:        a.component("http"),
		InternalToken: a.cfg.Server.InternalToken,
	})
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	if err := a.janitor.Stop(shutdownCtx); err != nil {
		a.logger.Warn("janitor stop", "error", err)
	}
	a.rooms.Close()
	if a.auditor != nil {
		a.auditor.Wait()
	}
	return serveErr
}

// Close releases the store and broker connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
