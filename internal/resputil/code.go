package resputil

type ErrorCode int

const (
	OK ErrorCode = 0

	// General
	InvalidRequest ErrorCode = 40001
	NotFound       ErrorCode = 40401

	// Token
	TokenExpired   ErrorCode = 40101
	TokenInvalid   ErrorCode = 40102
	RefreshExpired ErrorCode = 40103
	RefreshInvalid ErrorCode = 40104

	// Login
	InvalidCredentials ErrorCode = 40106
	UserDeactivated    ErrorCode = 40107

	// User is not allowed to access the resource
	UserNotAllowed ErrorCode = 40301

	// Approval workflow
	AlreadyFullyApproved ErrorCode = 42201
	AlreadyRejected      ErrorCode = 42202
	IncompleteProfile    ErrorCode = 42203
	ParentCycle          ErrorCode = 42204

	// Uploads
	UnsupportedMediaType ErrorCode = 41501
	UploadFailed         ErrorCode = 41502

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = 99999
)
