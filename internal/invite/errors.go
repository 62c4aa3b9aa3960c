package invite

import "errors"

// Sentinel errors for the invite package. The HTTP layer maps these onto the
// user-facing error strings of the redemption envelope.
var (
	ErrInvalidOrExpiredToken     = errors.New("invite: invalid or expired token")
	ErrRoleNotAllowed            = errors.New("invite: role not allowed")
	ErrIncompleteCredentials     = errors.New("invite: incomplete credentials")
	ErrWeakCredential            = errors.New("invite: credential shorter than minimum")
	ErrIdentityCreationFailed    = errors.New("invite: identity creation failed")
	ErrRoleAssignmentFailed      = errors.New("invite: role assignment failed")
	ErrProfileProvisioningFailed = errors.New("invite: profile provisioning failed")
	ErrMatriculaAlreadyLinked    = errors.New("invite: matricula already linked to another account")
)
