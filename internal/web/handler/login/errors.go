package login

import "errors"

var (
	// ErrInvalidFormData is returned when the submitted credentials cannot be parsed
	// or fail validation.
	ErrInvalidFormData = errors.New("invalid form data")

	// ErrInvalidCredentials is returned when the provided username and/or password
	// are not valid. Unknown users, wrong passwords and disabled accounts all map to it.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
