package errs

import "net/http"

// errorMap holds the client message and HTTP status of every business code.
// A zero Status means 400 Bad Request.
var errorMap = map[int]CustomError{
	// 1xxx
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Malformed JSON body."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrMissingFields:         {Code: ErrMissingFields, Message: "Missing required fields: %s"},

	// 2xxx
	ErrInvalidLocation:   {Code: ErrInvalidLocation, Message: "Invalid location data"},
	ErrInvalidImage:      {Code: ErrInvalidImage, Message: "Invalid image data"},
	ErrImageUploadFailed: {Code: ErrImageUploadFailed, Message: "Image upload failed", Status: http.StatusBadGateway},
	ErrItemNotFound:      {Code: ErrItemNotFound, Message: "Upload not found or not yours", Status: http.StatusNotFound},
	ErrInvalidSearchArea: {Code: ErrInvalidSearchArea, Message: "Invalid search area"},

	// 3xxx
	ErrUnauthorized:        {Code: ErrUnauthorized, Message: "Token is missing or invalid!", Status: http.StatusUnauthorized},
	ErrInvalidUsername:     {Code: ErrInvalidUsername, Message: "Username must be 3-32 letters, digits, '.', '_' or '-'"},
	ErrInvalidPassword:     {Code: ErrInvalidPassword, Message: "Password must be at least 6 characters"},
	ErrUserAlreadyExists:   {Code: ErrUserAlreadyExists, Message: "User already exists"},
	ErrInvalidCredentials:  {Code: ErrInvalidCredentials, Message: "Invalid credentials", Status: http.StatusUnauthorized},
	ErrInvalidRefreshToken: {Code: ErrInvalidRefreshToken, Message: "Refresh token is missing or invalid", Status: http.StatusUnauthorized},
	ErrUserNotFound:        {Code: ErrUserNotFound, Message: "User not found", Status: http.StatusNotFound},

	// 4xxx
	ErrPartnerRequired:       {Code: ErrPartnerRequired, Message: "partnerId is required"},
	ErrChatWithSelf:          {Code: ErrChatWithSelf, Message: "Cannot start chat with yourself"},
	ErrInvalidPartnerID:      {Code: ErrInvalidPartnerID, Message: "Invalid partner ID"},
	ErrInvalidChatID:         {Code: ErrInvalidChatID, Message: "Invalid chat ID"},
	ErrChatNotFound:          {Code: ErrChatNotFound, Message: "Chat not found", Status: http.StatusNotFound},
	ErrChatForbidden:         {Code: ErrChatForbidden, Message: "Forbidden", Status: http.StatusForbidden},
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message text is required"},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrNotInRoom:             {Code: ErrNotInRoom, Message: "Join the chat before sending events to it", Status: http.StatusForbidden},
	ErrUnknownEvent:          {Code: ErrUnknownEvent, Message: "Unsupported event"},

	// 6xxx
	ErrSubscriptionMissing: {Code: ErrSubscriptionMissing, Message: "No subscription data received"},

	// 5xxx
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
