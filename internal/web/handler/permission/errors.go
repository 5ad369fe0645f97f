package permission

import "errors"

var (
	errMissingPath     = errors.New("query parameter path is required")
	errUnknownResource = errors.New("unknown resource kind")
)
