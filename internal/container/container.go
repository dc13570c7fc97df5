package container

import (
	"context"
	"fmt"

	"testdesk/adapters/excel"
	"testdesk/adapters/sqlstore"
	"testdesk/app"
	"testdesk/internal"
	"testdesk/internal/api"
	"testdesk/internal/config"
	"testdesk/internal/extract"
	"testdesk/internal/migration"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB    *sqlx.DB
	Store *sqlstore.Store

	// Workbook handling
	Reader    *excel.DataReader
	Extractor *extract.Extractor

	// Services
	ImportService    *app.ImportService
	CSVImportService *app.CSVImportService
	CatalogService   *app.CatalogService
}

// New creates a new dependency injection container. The import profile is
// loaded here so a broken profile fails before any database work.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))

	profile := extract.DefaultProfile()
	if cfg.Import.ProfilePath != "" {
		var err error
		profile, err = config.LoadImportProfile(cfg.Import.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load import profile: %w", err)
		}
		logger.Info("Using import profile %s", cfg.Import.ProfilePath)
	}

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Reader:    excel.NewDataReader(excel.DefaultReaderConfig(), logger),
		Extractor: extract.NewExtractor(profile, logger),
	}
	return c, nil
}

// Open connects to the configured database, applies migrations and wires
// the services.
func (c *Container) Open(ctx context.Context) error {
	db, err := sqlstore.Connect(ctx, c.Config.Database.Driver, c.Config.Database.URL)
	if err != nil {
		return err
	}
	if err := migration.NewRunner(c.Config.Database.Driver).Run(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("database migration failed: %w", err)
	}
	return c.InitWithDatabase(db)
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db
	c.Store = sqlstore.NewStore(db)

	c.ImportService = app.NewImportService(c.Store, c.Store, c.Reader, c.Extractor,
		app.ImportOptions{CommitPerSheet: c.Config.Import.CommitPerSheet}, c.Logger)
	c.CSVImportService = app.NewCSVImportService(c.Store, c.Reader, c.Logger)
	c.CatalogService = app.NewCatalogService(c.Store, c.Store)

	c.Logger.Debug("Container initialized with %s database", c.Config.Database.Driver)
	return nil
}

// APIServer builds the HTTP surface over the wired services.
func (c *Container) APIServer() (*api.Server, error) {
	if c.ImportService == nil {
		return nil, fmt.Errorf("container not initialized with a database")
	}
	return api.NewServer(api.Config{
		UploadLimitBytes: int64(c.Config.Server.UploadLimitMB) << 20,
		ReadTimeout:      c.Config.Server.ReadTimeout,
		DefaultOverwrite: c.Config.Import.Overwrite,
	}, c.ImportService, c.CatalogService, c.Logger), nil
}

// Shutdown closes the database connection.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
