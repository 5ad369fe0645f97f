package config

import (
	"time"

	"github.com/tenantdesk/tenantdesk/internal/logger"
)

// Database engines.
const (
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
	EngineSQLite   = "sqlite"
)

// Snapshot cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Session settings.
type Session struct {
	ExpiryTime   time.Duration
	CookieName   string
	CookieSecure bool
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	DB        DB
	Log       logger.Log
	Webserver Webserver
	RBAC      RBAC
	Cache     Cache
	Bootstrap Bootstrap
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Port           int     `validate:"min=1,max=65535"` // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown in seconds
	URL            string  `validate:"url"` // base url for the webserver
	Session        Session // session settings
}

// RBAC holds the permission core settings.
type RBAC struct {
	// ApplicationCode is the application used when a request does not name one.
	ApplicationCode string `validate:"required"`
	// Applications lists the applications served by this instance.
	Applications []string `validate:"min=1,dive,required"`
	// ScopeRequiredLevels lists role levels that need a business scope on assignment.
	ScopeRequiredLevels []int `validate:"dive,min=1,max=5"`
}

// Cache configures where permission snapshots are kept.
type Cache struct {
	Backend       string
	Size          int           `validate:"min=0"` // memory backend entries
	TTL           time.Duration // zero keeps entries until invalidated
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
}

// Bootstrap holds the seed settings of a fresh installation.
type Bootstrap struct {
	TenantName    string
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}
