package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/andy/invoicer/internal/api"
	"github.com/andy/invoicer/internal/config"
	"github.com/andy/invoicer/internal/crypto"
	"github.com/andy/invoicer/internal/db"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/logging"
	"github.com/andy/invoicer/internal/render"
	"github.com/andy/invoicer/internal/repository"
	"github.com/andy/invoicer/internal/service"
	"github.com/andy/invoicer/internal/session"
	"go.uber.org/zap"
)

// Version is stamped at build time
var Version = "dev"

// App is the dependency injection container for all application components
type App struct {
	Config     *config.Config
	ConfigPath string
	DB         *db.DB
	Logger     *zap.Logger
	Keyring    crypto.Keyring
	API        *api.Client
	Session    *session.Manager

	// Local cache
	ClientRepo  *repository.ClientRepo
	InvoiceRepo *repository.InvoiceRepo
	UserRepo    *repository.UserRepo
	MetaRepo    *repository.MetaRepo

	// Services
	AuthService       service.AuthService
	ClientService     service.ClientService
	InvoiceService    service.InvoiceService
	DashboardService  service.DashboardService
	ExtractionService service.ExtractionService
	BillingService    service.BillingService
}

// New creates a new App instance, initializing all dependencies
// It handles:
// 1. Loading config
// 2. Building the file logger
// 3. Getting the cache key from the keyring
// 4. Opening the cache and running migrations
// 5. Restoring the session
// 6. Creating the API client and services
func New(ctx context.Context) (*App, error) {
	path := config.DefaultConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg, path, crypto.NewKeyring())
}

// NewWithConfig creates an App with a provided config and keyring (useful for testing)
func NewWithConfig(ctx context.Context, cfg *config.Config, configPath string, keys crypto.Keyring) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure all necessary directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Path:    cfg.Log.Path,
		Version: Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	key, err := crypto.CacheKey(keys)
	if err != nil {
		return nil, fmt.Errorf("failed to get cache encryption key: %w", err)
	}

	database, err := db.Open(cfg.Cache.Path, key)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// Run migrations to ensure schema is up to date
	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &App{
		Config:      cfg,
		ConfigPath:  configPath,
		DB:          database,
		Logger:      logger,
		Keyring:     keys,
		ClientRepo:  repository.NewClientRepo(database),
		InvoiceRepo: repository.NewInvoiceRepo(database),
		UserRepo:    repository.NewUserRepo(database),
		MetaRepo:    repository.NewMetaRepo(database),
	}

	a.Session = session.NewManager(keys, a.UserRepo, logging.Component(logger, "session"))
	if err := a.Session.Initialize(ctx); err != nil {
		logger.Warn("failed to restore session", zap.Error(err))
	}

	// A 401 on an authenticated request ends the session
	onUnauthorized := func() {
		if err := a.Session.Clear(context.Background()); err != nil {
			logger.Warn("failed to clear session", zap.Error(err))
		}
	}

	a.API, err = api.New(cfg.API.BaseURL, cfg.API.Timeout, a.Session,
		api.WithLogger(logging.Component(logger, "api")),
		api.WithUnauthorizedHandler(onUnauthorized),
		api.WithUserAgent("invoicer/"+Version),
	)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	a.AuthService = service.NewAuthService(a.API, a.Session, logging.Component(logger, "auth"))
	a.ClientService = service.NewClientService(a.API, a.ClientRepo, a.MetaRepo, cfg.Cache.TTL, logging.Component(logger, "clients"))
	a.InvoiceService = service.NewInvoiceService(a.API, a.InvoiceRepo, service.InvoiceDefaults{
		DueDays:  cfg.Invoice.DefaultDueDays,
		TaxRate:  cfg.Invoice.DefaultTaxRate,
		Currency: cfg.Invoice.Currency,
	}, logging.Component(logger, "invoices"))
	a.DashboardService = service.NewDashboardService(a.ClientService, a.InvoiceService)
	a.ExtractionService = service.NewExtractionService(a.API, a.ClientService, a.InvoiceService, logging.Component(logger, "extraction"))
	a.BillingService = service.NewBillingService(a.API, a.AuthService, logging.Component(logger, "billing"))

	logger.Info("started",
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("signed_in", a.Session.Current().Authenticated()),
	)
	return a, nil
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	if err := a.Config.Validate(); err != nil {
		return err
	}
	return a.Config.Save(a.ConfigPath)
}

// ClearCache drops every cached record and signs out
func (a *App) ClearCache(ctx context.Context) error {
	if err := a.Session.Clear(ctx); err != nil {
		return err
	}
	return a.DB.Purge()
}

// Sender is the "From" block of rendered invoices. The configured user
// block wins; the signed-in profile fills in when it is empty.
func (a *App) Sender() render.Party {
	u := a.Config.User
	from := render.Party{Name: u.Name, Email: u.Email, Address: u.Address, Phone: u.Phone}
	if from.Name == "" && a.Session != nil {
		if user := a.Session.Current().User; user != nil {
			from.Name = user.DisplayName()
			if from.Email == "" {
				from.Email = user.Email
			}
		}
	}
	return from
}

// Document loads invoice id and its client for rendering
func (a *App) Document(ctx context.Context, id int64) (render.Document, error) {
	inv, err := a.InvoiceService.Get(ctx, id)
	if err != nil {
		return render.Document{}, fmt.Errorf("failed to get invoice: %w", err)
	}

	var client *domain.Client
	if inv.Client == nil {
		client, _ = a.ClientService.Get(ctx, inv.ClientID)
	}
	return render.NewDocument(*inv, a.Sender(), client, a.Config.Invoice.Currency), nil
}
