// Package main provides the entry point of the tenantdesk admin API.
// It serves the role based access control core of a multi tenant HR and CRM
// suite over a JSON API built on Fiber: login sessions, per application role
// assignments, menu grants and record capability checks. Data is kept with
// gorm in PostgreSQL, MySQL or SQLite, permission snapshots in memory or Redis.
package main
