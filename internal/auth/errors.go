package auth

import (
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

var (
	// ErrInvalidCredentials is returned for every authentication failure:
	// unknown identifier, missing local method or wrong password. The
	// single message prevents user enumeration.
	ErrInvalidCredentials = opcode.New(opcode.NotFound, "the identifier or password is incorrect")

	// ErrSessionExpired is returned when a session id cannot be resolved.
	ErrSessionExpired = opcode.New(opcode.RequiredLogin, "you have been logged out, please log in again")

	// ErrSessionIDExhausted is returned when session id generation keeps
	// colliding. With 95 bytes of entropy this indicates store corruption,
	// not bad luck.
	ErrSessionIDExhausted = opcode.New(opcode.Err, "failed to allocate a unique session id")

	// ErrInvalidPermissionIndex is returned when a permission carries a
	// bit index outside [0,127].
	ErrInvalidPermissionIndex = opcode.New(opcode.ValidationFailed, "permission index out of range")

	// ErrInvalidPermissionMask is returned when decoding a malformed or
	// oversized permission mask.
	ErrInvalidPermissionMask = opcode.New(opcode.ValidationFailed, "malformed permission mask")

	// ErrServiceSecretMissing is returned when issuing a token for a
	// service loaded without its secret key.
	ErrServiceSecretMissing = opcode.New(opcode.Err, "service secret key is not available")
)
