package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownDBEngine error if config db.engine is not supported.
	ErrUnknownDBEngine = errors.New("toml config db.engine must be postgres, mysql or sqlite")

	// ErrUnknownCacheBackend error if config cache.backend is not supported.
	ErrUnknownCacheBackend = errors.New("toml config cache.backend must be none, memory or redis")

	// ErrRedisAddrEmpty error if the redis cache backend has no address.
	ErrRedisAddrEmpty = errors.New("toml config cache.redisAddr can not be empty for the redis backend")

	// ErrDefaultApplicationNotServed error if rbac.applicationCode is missing from rbac.applications.
	ErrDefaultApplicationNotServed = errors.New("toml config rbac.applicationCode must be listed in rbac.applications")
)
