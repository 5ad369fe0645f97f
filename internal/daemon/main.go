// Package daemon wires the database, the permission core and the web service together.
package daemon

import (
	"context"
	"strconv"
	"time"

	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/cache"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/db/controller/access"
	"github.com/tenantdesk/tenantdesk/internal/db/dsn"
	"github.com/tenantdesk/tenantdesk/internal/db/models"
	"github.com/tenantdesk/tenantdesk/internal/db/seed"
	"github.com/tenantdesk/tenantdesk/internal/logger/adapter/stdlogger"
	"github.com/tenantdesk/tenantdesk/internal/metrics"
	"github.com/tenantdesk/tenantdesk/internal/rbac"
	"github.com/tenantdesk/tenantdesk/internal/web"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
	"github.com/tenantdesk/tenantdesk/internal/web/session"
)

// sessionTable holds sessions kept by the gofiber storage drivers.
const sessionTable = "fiber_sessions"

const (
	slowQueryThreshold = 200 * time.Millisecond
	redisPingTimeout   = 5 * time.Second
)

// ErrConfigNil is returned when the daemon is created without a configuration.
var ErrConfigNil = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	sessions   *session.Store
	redis      *redis.Client
	webService *web.Service
}

// Start runs the web service and blocks until it is shut down by a signal.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	err := d.webService.Start(":" + strconv.Itoa(d.cfg.Webserver.Port))

	d.Close()

	return err
}

// Close releases the session storage and the cache connection.
func (d *Daemon) Close() {
	if err := d.sessions.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close session storage")
	}

	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
}

// New opens the database, migrates and seeds it, and builds the web service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	if _, err = Seed(cfg, db); err != nil {
		return nil, err
	}

	d := &Daemon{cfg: cfg, db: db}

	snapshotCache, err := d.newCache()
	if err != nil {
		return nil, err
	}

	repo, err := access.New(db)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	stores := make([]*rbac.Store, 0, len(cfg.RBAC.Applications))
	for _, app := range cfg.RBAC.Applications {
		opts := []rbac.StoreOption{}
		if snapshotCache != nil {
			opts = append(opts, rbac.WithCache(snapshotCache))
		}

		stores = append(stores, rbac.NewStore(repo, app, opts...))
	}

	recorder, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register metrics")
	}

	policy := rbac.Policy{BusinessScopeLevels: cfg.RBAC.ScopeRequiredLevels}

	authService, err := auth.NewService(auth.Options{
		DefaultApplication: cfg.RBAC.ApplicationCode,
		Stores:             stores,
		Writer:             repo,
		Policy:             &policy,
		Metrics:            recorder,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create auth service")
	}

	storage, err := newSessionStorage(cfg, db)
	if err != nil {
		return nil, err
	}

	d.sessions, err = session.New(storage, cfg.Webserver.Session, cfg.DevMode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session store")
	}

	d.webService, err = web.New(cfg, handler.Deps{
		Cfg:      cfg,
		DB:       db,
		Sessions: d.sessions,
		Auth:     authService,
		Access:   repo,
	}, prometheus.DefaultGatherer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create web service")
	}

	return d, nil
}

// OpenDB connects to the configured database. gorm logs through zerolog.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	source, err := dsn.Create(cfg.DB)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	var dialector gorm.Dialector

	switch cfg.DB.Engine {
	case config.EngineMySQL:
		dialector = gormmysql.Open(source)
	case config.EnginePostgres:
		dialector = gormpostgres.Open(source)
	default:
		dialector = sqlite.Open(source)
	}

	level := gormlogger.Warn
	if cfg.DevMode {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(stdlogger.New(), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	log.Info().Str("engine", cfg.DB.Engine).Msg("database connected")

	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	return nil
}

// Seed creates the system roles and menu items of every served application and
// the bootstrap administrator. Existing rows are kept.
func Seed(cfg *config.Config, db *gorm.DB) (seed.Result, error) {
	res, err := seed.Run(db, seed.Options{
		TenantName:    cfg.Bootstrap.TenantName,
		AdminUsername: cfg.Bootstrap.AdminUsername,
		AdminPassword: cfg.Bootstrap.AdminPassword,
		AdminEmail:    cfg.Bootstrap.AdminEmail,
		Applications:  cfg.RBAC.Applications,
	})
	if err != nil {
		return res, errors.Wrap(err, "failed to seed database")
	}

	return res, nil
}

// newCache builds the snapshot cache. It returns nil when caching is disabled.
func (d *Daemon) newCache() (rbac.Cache, error) {
	c := d.cfg.Cache

	switch c.Backend {
	case config.CacheNone:
		log.Warn().Msg("permission snapshot cache disabled")
		return nil, nil //nolint:nilnil
	case config.CacheRedis:
		d.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})

		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()

		if err := d.redis.Ping(ctx).Err(); err != nil {
			return nil, errors.Wrap(err, "failed to connect redis")
		}

		return cache.NewRedis(d.redis, c.TTL, c.Prefix), nil
	default:
		return cache.NewMemory(c.Size, c.TTL), nil
	}
}

// newSessionStorage keeps sessions in the application database.
func newSessionStorage(cfg *config.Config, db *gorm.DB) (session.Storage, error) {
	switch cfg.DB.Engine {
	case config.EngineMySQL, config.EnginePostgres:
		source, err := dsn.Create(cfg.DB)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		if cfg.DB.Engine == config.EngineMySQL {
			return sessionmysql.New(sessionmysql.Config{ConnectionURI: source, Table: sessionTable}), nil
		}

		return sessionpostgres.New(sessionpostgres.Config{ConnectionURI: source, Table: sessionTable}), nil
	default:
		return session.NewDBStorage(db), nil
	}
}
