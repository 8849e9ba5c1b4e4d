/*
Package errs provides the application's error type and business error codes.

Codes are grouped by range and identify an error both in server logs and in the JSON
envelope returned to clients.
*/
package errs

// 1xxx: General request handling errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body is not valid JSON for the endpoint.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body exceeded the route limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the client IP exceeded its request rate.
	ErrRateLimitExceeded = 1007

	// ErrMissingFields lists the required fields absent from the request.
	ErrMissingFields = 1008
)

// 2xxx: Items and media errors
const (
	// ErrInvalidLocation indicates a missing or out-of-range geo location.
	ErrInvalidLocation = 2001

	// ErrInvalidImage indicates that the image is not a supported base64 data URL
	// or decodes to more than the size limit.
	ErrInvalidImage = 2002

	// ErrImageUploadFailed indicates that the media host rejected or lost the upload.
	ErrImageUploadFailed = 2004

	// ErrItemNotFound indicates that the item does not exist or belongs to someone else.
	ErrItemNotFound = 2005

	// ErrInvalidSearchArea indicates malformed lat/lng/radius query parameters.
	ErrInvalidSearchArea = 2006
)

// 3xxx: Users, sessions and security errors
const (
	// ErrUnauthorized indicates a missing, invalid or expired access token.
	ErrUnauthorized = 3001

	ErrInvalidUsername = 3002

	ErrInvalidPassword = 3003

	ErrUserAlreadyExists = 3004

	// ErrInvalidCredentials is returned for both unknown usernames and wrong passwords.
	ErrInvalidCredentials = 3005

	// ErrInvalidRefreshToken indicates a missing, invalid or expired refresh token.
	ErrInvalidRefreshToken = 3006

	ErrUserNotFound = 3007
)

// 4xxx: Chat errors
const (
	ErrPartnerRequired = 4001

	ErrChatWithSelf = 4002

	ErrInvalidPartnerID = 4003

	ErrInvalidChatID = 4004

	ErrChatNotFound = 4005

	// ErrChatForbidden indicates that the caller is not a participant of the chat.
	ErrChatForbidden = 4006

	// ErrMessageEmpty indicates a message that is blank after trimming.
	ErrMessageEmpty = 4007

	// ErrMessageContentTooLong indicates that the message text exceeded the byte limit.
	ErrMessageContentTooLong = 4008

	// ErrNotInRoom indicates a room event from a connection that has not joined the room.
	ErrNotInRoom = 4009

	// ErrUnknownEvent indicates an unsupported real-time event name.
	ErrUnknownEvent = 4010
)

// 6xxx: Notification errors
const (
	ErrSubscriptionMissing = 6001
)

// 5xxx: Internal system errors
const (
	// ErrUnknown represents an unclassified server error.
	ErrUnknown = 5000
)
