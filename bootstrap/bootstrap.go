// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from a YAML file with ZACRE_* environment overrides,
// or from the environment alone when no file exists.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/zacre/adapters/auth"
	"github.com/artpar/zacre/adapters/clock"
	"github.com/artpar/zacre/adapters/hasher"
	zhttp "github.com/artpar/zacre/adapters/http"
	"github.com/artpar/zacre/adapters/idgen"
	"github.com/artpar/zacre/adapters/memory"
	"github.com/artpar/zacre/adapters/metrics"
	zredis "github.com/artpar/zacre/adapters/redis"
	"github.com/artpar/zacre/adapters/sqlite"
	"github.com/artpar/zacre/app"
	"github.com/artpar/zacre/config"
	"github.com/artpar/zacre/core/modules"
	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/ports"
	"github.com/artpar/zacre/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options configures application construction.
type Options struct {
	// ConfigPath is the YAML config file. A missing file falls back to
	// environment variables.
	ConfigPath string

	// Version is reported by the admin sidebar and the version command.
	Version string

	// LogOutput receives console logs. Defaults to stdout.
	LogOutput io.Writer

	// SkipServer builds the services without the HTTP server, for CLI
	// commands that only touch the database.
	SkipServer bool
}

// ttlSetter is implemented by the config caches.
type ttlSetter interface {
	SetTTL(ttl time.Duration)
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector
	Modules    *registry.Registry
	Assets     *web.Assets

	// Services
	Registry   *app.PageRegistry
	Parameters *app.ParameterService
	Layouts    *app.LayoutService
	Pages      *app.PageService
	Auth       *app.AuthService
	Assembler  *app.Assembler
	Dispatcher *app.Dispatcher

	tokens         *auth.TokenService
	metricsHandler http.Handler
	moduleStore    ports.ModuleStore
	cache          ttlSetter
	redis          *goredis.Client
	logFile        io.Closer
	version        string
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	holder, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg := holder.Get()

	logger, logFile, err := NewLogger(cfg.Logging, opts.LogOutput)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	holder.SetLogger(logger)

	a := &App{
		Logger:  logger,
		Config:  holder,
		logFile: logFile,
		version: opts.Version,
	}

	logger.Info().Str("version", opts.Version).Msg("initializing zacre")

	if err := a.initDatabase(cfg.Database); err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := a.initServices(cfg); err != nil {
		a.Close()
		return nil, fmt.Errorf("init services: %w", err)
	}
	if err := a.syncModules(context.Background()); err != nil {
		a.Close()
		return nil, fmt.Errorf("sync modules: %w", err)
	}
	if !opts.SkipServer {
		a.initHTTPServer(cfg)
	}

	holder.OnChange(a.applyConfig)
	return a, nil
}

func loadConfig(path string) (*config.Holder, error) {
	nop := zerolog.Nop()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return config.NewHolder(path, nop)
		}
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	return config.NewHolderFromConfig(cfg, "", nop)
}

func (a *App) initDatabase(cfg config.DatabaseConfig) error {
	db, err := sqlite.Open(cfg.DSN)
	if err != nil {
		return err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Logger.Info().Str("dsn", cfg.DSN).Msg("database initialized")
	return nil
}

func (a *App) initServices(cfg *config.Config) error {
	clk := clock.Real{}
	ids := idgen.UUID{}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(reg)
		a.metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		a.Logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}
	var observer ports.RenderObserver
	if a.Metrics != nil {
		observer = a.Metrics
	}

	cache, err := a.newConfigCache(cfg.Cache, clk)
	if err != nil {
		return err
	}

	pageStore := sqlite.NewPageStore(a.DB)
	layoutStore := sqlite.NewLayoutStore(a.DB)
	a.moduleStore = sqlite.NewModuleStore(a.DB)

	a.Registry = app.NewPageRegistry(pageStore, layoutStore, clk, a.Logger, app.RegistryConfig{
		RefreshInterval: cfg.Registry.RefreshInterval,
		Observer:        observer,
	})
	a.Parameters = app.NewParameterService(sqlite.NewParameterStore(a.DB), cache, a.Logger)
	a.Layouts = app.NewLayoutService(layoutStore, a.moduleStore, pageStore, a.Registry, ids, clk, a.Logger)
	a.Pages = app.NewPageService(pageStore, layoutStore, a.Registry, ids, clk, a.Logger)

	a.tokens = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, clk)
	if cfg.Auth.JWTSecret == "" {
		a.Logger.Warn().Msg("auth.jwt_secret is empty, sessions will not survive a restart")
	}
	a.Auth = app.NewAuthService(sqlite.NewUserStore(a.DB), hasher.NewBcrypt(0), a.tokens, ids, clk, a.Logger)

	reg, err := registry.New(modules.All(modules.Deps{
		Pages:      a.Registry,
		Filter:     app.NewPageFilterService(),
		Layouts:    a.Layouts,
		PageAdmin:  a.Pages,
		Parameters: a.Parameters,
		Version:    a.version,
	})...)
	if err != nil {
		return fmt.Errorf("register modules: %w", err)
	}
	reg.Freeze()
	a.Modules = reg

	shell, err := web.NewShell()
	if err != nil {
		return err
	}
	a.Assets = web.NewAssets(cfg.Assets.PublicDir, cfg.Assets.Environment)
	a.Assembler = app.NewAssembler(a.Registry, reg, a.Parameters, shell, a.Assets, clk, a.Logger, app.AssemblerConfig{
		Concurrency: cfg.Render.Concurrency,
		Observer:    observer,
	})
	a.Dispatcher = app.NewDispatcher(layoutStore, a.Registry, reg, shell, observer, a.Logger)
	return nil
}

func (a *App) newConfigCache(cfg config.CacheConfig, clk ports.Clock) (ports.ConfigCache, error) {
	if cfg.Driver != config.CacheRedis {
		c := memory.NewConfigCache(cfg.ConfigTTL, clk)
		a.cache = c
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := zredis.NewClient(ctx, zredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect config cache: %w", err)
	}
	a.redis = client
	c := zredis.NewConfigCache(client, cfg.Redis.Prefix, cfg.ConfigTTL)
	a.cache = c
	a.Logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis config cache enabled")
	return c, nil
}

// syncModules mirrors the registered modules into the module table and
// declares their parameter types.
func (a *App) syncModules(ctx context.Context) error {
	ids := idgen.UUID{}
	now := time.Now().UTC()
	for _, d := range a.Modules.All() {
		_, err := a.moduleStore.Upsert(ctx, layout.Module{
			ID:          ids.New(),
			ShortName:   d.ShortName,
			Name:        d.Name,
			Description: d.Description,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("upsert module %s: %w", d.ShortName, err)
		}
	}
	if err := a.Parameters.DeclareParameterTypes(ctx, a.Modules.All()); err != nil {
		return err
	}
	a.Logger.Debug().Int("count", len(a.Modules.All())).Msg("modules synchronized")
	return nil
}

func (a *App) initHTTPServer(cfg *config.Config) {
	routerCfg := zhttp.RouterConfig{
		Services: zhttp.Services{
			Layouts:    a.Layouts,
			Pages:      a.Pages,
			Assembler:  a.Assembler,
			Dispatcher: a.Dispatcher,
			Auth:       a.Auth,
		},
		Sessions:       auth.NewProvider(a.tokens, cfg.Auth.CookieName),
		Assets:         a.Assets,
		Health:         a.DB,
		CookieName:     cfg.Auth.CookieName,
		CookieSecure:   cfg.Auth.CookieSecure,
		Metrics:        a.Metrics,
		MetricsHandler: a.metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
		RequestTimeout: cfg.Server.WriteTimeout,
	}

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      zhttp.NewRouter(routerCfg, a.Logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http server configured")
}

// applyConfig hot-applies the reloadable fields.
func (a *App) applyConfig(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if a.cache != nil {
		a.cache.SetTTL(cfg.Cache.ConfigTTL)
	}
	if a.Registry != nil {
		a.Registry.SetRefreshInterval(cfg.Registry.RefreshInterval)
	}
	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
	}
}

// Start loads the page registry.
func (a *App) Start(ctx context.Context) error {
	return a.Registry.Start(ctx)
}

// Run starts the HTTP server and blocks until ctx is done or a signal
// arrives.
func (a *App) Run(ctx context.Context) error {
	if a.HTTPServer == nil {
		return errors.New("http server not configured")
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	if err := a.Config.WatchFile(); err != nil {
		a.Logger.Debug().Err(err).Msg("config file watch disabled")
	} else {
		a.Config.WatchSignals()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info().Msg("shutting down")
		return a.Shutdown()
	})
	return g.Wait()
}

// Shutdown gracefully stops the server and releases resources.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}
	a.Close()
	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// Close releases the database, cache and log file without touching the
// HTTP server.
func (a *App) Close() {
	if a.Config != nil {
		a.Config.Stop()
	}
	if a.Registry != nil {
		a.Registry.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("redis close error")
		}
		a.redis = nil
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
		a.DB = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}
