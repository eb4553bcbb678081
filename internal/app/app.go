package app

import (
	"context"
	"errors"
	"fmt"

	"teambuilder/internal/config"
	"teambuilder/internal/handlers"
	"teambuilder/internal/repositories/cached"
	firestorerepo "teambuilder/internal/repositories/firestore"
	"teambuilder/internal/repositories/interfaces"
	"teambuilder/internal/repositories/memory"
	"teambuilder/internal/repositories/mongodb"
	"teambuilder/internal/services"
	"teambuilder/pkg/cache"
	"teambuilder/pkg/database"
	"teambuilder/pkg/identity"
	"teambuilder/pkg/logger"
	"teambuilder/pkg/metrics"
	"teambuilder/pkg/push"
	"teambuilder/pkg/storage"
)

// App holds the process-wide dependencies shared by the binaries.
type App struct {
	Config     *config.Config
	Logger     *logger.Logger
	Users      interfaces.UserRepository
	Cache      interfaces.CacheService
	Locker     interfaces.RunLocker
	Reports    storage.StorageProvider
	Identities identity.Provider
	Metrics    *metrics.Metrics
	Notifier   push.PushProvider

	Team  services.TeamService
	User  services.UserService
	Admin services.AdminService

	checks  map[string]handlers.HealthCheck
	closers []func() error
}

func NewLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Caller:     cfg.App.Debug,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
}

// New connects every backend named by cfg. On error, whatever was opened is
// closed again.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(),
		checks:  make(map[string]handlers.HealthCheck),
	}

	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Team = services.NewTeamService(a.Users, a.Locker, a.Cache, a.Reports, a.Metrics, a.Notifier, services.TeamServiceConfig{
		Workers:      cfg.Team.Workers,
		DryRun:       cfg.Team.DryRun,
		LockTTL:      cfg.Team.LockTTL,
		RunTimeout:   cfg.Team.RunTimeout,
		ReportPrefix: cfg.Team.ReportPrefix,
		LastRunTTL:   cfg.Team.LastRunTTL,
		NotifyTopic:  cfg.Team.NotifyTopic,
	}, log.WithField("component", "team"))
	a.User = services.NewUserService(a.Users, log.WithField("component", "users"))
	a.Admin = services.NewAdminService(a.Users, a.Identities, log.WithField("component", "admin"))

	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	fb, err := a.initFirebase(ctx)
	if err != nil {
		return err
	}
	if err := a.initStore(ctx, fb); err != nil {
		return err
	}
	if err := a.initCache(ctx); err != nil {
		return err
	}
	if err := a.initReports(ctx); err != nil {
		return err
	}
	return a.initIdentities(ctx, fb)
}

func (a *App) initFirebase(ctx context.Context) (*database.Firebase, error) {
	fc := a.Config.Firebase
	if fc.ProjectID == "" && fc.CredentialsFile == "" {
		return nil, nil
	}

	fb, err := database.NewFirebase(ctx, &database.FirebaseConfig{
		ProjectID:       fc.ProjectID,
		CredentialsFile: fc.CredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, fb.Close)
	return fb, nil
}

func (a *App) initStore(ctx context.Context, fb *database.Firebase) error {
	dc := a.Config.Database
	log := a.Logger.WithField("store", dc.Provider)

	switch dc.Provider {
	case config.StoreFirestore:
		if fb == nil {
			return errors.New("firestore store requires Firebase configuration")
		}
		a.Users = firestorerepo.NewUserRepository(fb.Firestore, dc.UsersCollection, log)

	case config.StoreMongoDB:
		db, err := database.NewMongoDB(ctx, &database.MongoConfig{
			URI:            dc.URI,
			Database:       dc.Database,
			MaxPoolSize:    dc.MaxPoolSize,
			MinPoolSize:    dc.MinPoolSize,
			ConnectTimeout: dc.ConnectTimeout,
			SocketTimeout:  dc.SocketTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.checks["mongodb"] = db.Ping

		if dc.RunMigrations {
			if err := database.NewMigrator(db.Database, dc.UsersCollection, log).Up(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		a.Users = mongodb.NewUserRepository(db.Database, dc.UsersCollection, log)

	case config.StoreMemory:
		if dc.SeedFile == "" {
			a.Users = memory.NewUserRepository()
			break
		}
		repo, err := memory.LoadUserRepository(dc.SeedFile)
		if err != nil {
			return err
		}
		log.WithField("users", repo.Len()).Info("Loaded seed file")
		a.Users = repo

	default:
		return fmt.Errorf("unknown store provider %q", dc.Provider)
	}

	return nil
}

func (a *App) initCache(ctx context.Context) error {
	rc := a.Config.Redis
	if !rc.Enabled {
		mc := cache.NewMemoryCache()
		a.Cache, a.Locker = mc, mc
		return nil
	}

	rdb, err := cache.NewRedisCache(ctx, &cache.RedisConfig{
		Host:         rc.Host,
		Port:         rc.Port,
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
		KeyPrefix:    rc.KeyPrefix,
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, rdb.Close)
	a.checks["redis"] = rdb.Ping

	a.Cache, a.Locker = rdb, rdb
	a.Users = cached.NewUserRepository(a.Users, rdb, rc.UserCacheTTL)
	return nil
}

func (a *App) initReports(ctx context.Context) error {
	sc := a.Config.Storage

	switch sc.Provider {
	case "":
		return nil
	case config.StorageLocal:
		s, err := storage.NewLocalStorage(sc.Local.BasePath, sc.Local.BaseURL)
		if err != nil {
			return err
		}
		a.Reports = s
	case config.StorageGCP:
		s, err := storage.NewGCPStorage(ctx, sc.GCP.Bucket, sc.GCP.CredentialsFile, sc.GCP.CDNDomain)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, s.Close)
		a.Reports = s
	case config.StorageAWS:
		s, err := storage.NewAWSS3Storage(ctx, sc.AWS.Region, sc.AWS.Bucket, sc.AWS.CDNDomain)
		if err != nil {
			return err
		}
		a.Reports = s
	default:
		return fmt.Errorf("unknown storage provider %q", sc.Provider)
	}
	return nil
}

func (a *App) initIdentities(ctx context.Context, fb *database.Firebase) error {
	if fb == nil {
		a.Logger.Warn("Firebase not configured, using in-memory identities; API tokens cannot be verified")
		a.Identities = identity.NewMemoryProvider()
		return nil
	}

	p, err := identity.NewFirebaseProvider(ctx, fb.App)
	if err != nil {
		return err
	}
	a.Identities = p

	if a.Config.Team.NotifyTopic != "" {
		n, err := push.NewFCMProvider(ctx, fb.App)
		if err != nil {
			return err
		}
		a.Notifier = n
	}
	return nil
}

func (a *App) HealthChecks() map[string]handlers.HealthCheck {
	return a.checks
}

// Close releases backends in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
