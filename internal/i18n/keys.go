// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess           = "success"
	KeyError             = "error"
	KeyForbidden         = "forbidden"
	KeyConflict          = "conflict"
	KeyRateLimited       = "rate_limited"
	KeyValidationInvalid = "validation.invalid"

	// Authentication
	KeyAuthRequired       = "auth.required"
	KeyAuthInvalidToken   = "auth.invalid_token"
	KeyAuthTokenExpired   = "auth.token_expired"
	KeyAuthLoginSuccess   = "auth.login_success"
	KeyAuthProviderFailed = "auth.provider_failed"

	// Users
	KeyUserNotFound       = "user.not_found"
	KeyUserProfileUpdated = "user.profile_updated"

	// Books
	KeyBookNotFound = "book.not_found"
	KeyBookCreated  = "book.created"
	KeyBookUpdated  = "book.updated"
	KeyBookDeleted  = "book.deleted"

	// Chapters and media
	KeyChapterNotFound = "chapter.not_found"
	KeyChapterCreated  = "chapter.created"
	KeyChapterUpdated  = "chapter.updated"
	KeyChapterDeleted  = "chapter.deleted"
	KeyMediaNotFound   = "media.not_found"
	KeyMediaCreated    = "media.created"
	KeyMediaDeleted    = "media.deleted"

	// Engagement
	KeyCommentNotFound = "comment.not_found"
	KeyCommentCreated  = "comment.created"
	KeyCommentDeleted  = "comment.deleted"

	// Payments
	KeyPaymentProviderFailed = "payment.provider_failed"
	KeyPaymentNotConfirmed   = "payment.not_confirmed"
	KeyPurchaseCompleted     = "purchase.completed"
	KeyPurchaseExists        = "purchase.exists"
)
