package auth

import "errors"

var (
	// ErrInvalidOldPassword is returned when the provided old password does not match the user's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownApplication is returned when a request addresses an application this instance does not serve.
	ErrUnknownApplication = errors.New("unknown application")

	// ErrNoStores is returned when the service is created without any permission store.
	ErrNoStores = errors.New("no permission store configured")

	// ErrWriterNil is returned when the service is created without an assignment writer.
	ErrWriterNil = errors.New("assignment writer is nil")

	// ErrDBNil is returned when a provider is created without a database.
	ErrDBNil = errors.New("db is nil")
)
