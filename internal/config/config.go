// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvConfigJSON names the environment variable holding a JSON document merged over the file.
const EnvConfigJSON = "TENANTDESK_CONFIG_JSON"

const invalidErrMessage = "invalid config"

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	if configAsJSON := os.Getenv(EnvConfigJSON); configAsJSON != "" {
		c, err = decodeAndMergeConfig(c, configAsJSON)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "TenantDesk")
	v.SetDefault("db.engine", EngineSQLite)
	v.SetDefault("db.name", "tenantdesk.db")
	v.SetDefault("webserver.shutDownTime", 5) //nolint:mnd
	v.SetDefault("webserver.session.expiryTime", "8h")
	v.SetDefault("webserver.session.cookieName", "tenantdesk_session")
	v.SetDefault("rbac.applicationCode", "CRM")
	v.SetDefault("rbac.applications", []string{"HRMS", "CRM"})
	v.SetDefault("rbac.scopeRequiredLevels", []int{3, 4})
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.size", 1024) //nolint:mnd
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.prefix", "tenantdesk:perm:")
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config from env "+EnvConfigJSON)
	}

	return c, nil
}

const redacted = "********"

// Redacted returns a copy of c with every secret replaced.
func (c Config) Redacted() Config {
	for _, secret := range []*string{&c.DB.Password, &c.Cache.RedisPassword, &c.Bootstrap.AdminPassword} {
		if *secret != "" {
			*secret = redacted
		}
	}

	return c
}

// DumpConfig config as TOML String. Secrets are redacted.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer

	c = c.Redacted()

	enc := toml.NewEncoder(&buffer)
	enc.SetIndentTables(true)

	if err := enc.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String. Secrets are redacted.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer

	c = c.Redacted()
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon cannot start without and fills
// values that have a safe fallback.
func validate(c *Config) error {
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	c.DB.Engine = strings.ToLower(c.DB.Engine)
	if !slices.Contains([]string{EnginePostgres, EngineMySQL, EngineSQLite}, c.DB.Engine) {
		return errors.Wrapf(ErrUnknownDBEngine, "%s: %q", invalidErrMessage, c.DB.Engine)
	}

	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	if !slices.Contains([]string{CacheNone, CacheMemory, CacheRedis}, c.Cache.Backend) {
		return errors.Wrapf(ErrUnknownCacheBackend, "%s: %q", invalidErrMessage, c.Cache.Backend)
	}

	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errors.Wrap(ErrRedisAddrEmpty, invalidErrMessage)
	}

	c.RBAC.ApplicationCode = strings.ToUpper(c.RBAC.ApplicationCode)
	for i, app := range c.RBAC.Applications {
		c.RBAC.Applications[i] = strings.ToUpper(app)
	}

	if !slices.Contains(c.RBAC.Applications, c.RBAC.ApplicationCode) {
		return errors.Wrapf(ErrDefaultApplicationNotServed, "%s: %q", invalidErrMessage, c.RBAC.ApplicationCode)
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	return nil
}
