package payment

import "errors"

// Sentinel errors for the purchase and enrollment flow. Handlers translate
// these into HTTP statuses; anything else is treated as a transient failure
// that the gateway is allowed to retry.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCourseNotFound   = errors.New("course not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrAlreadyEnrolled  = errors.New("user already enrolled in course")
	ErrBadSignature     = errors.New("webhook signature verification failed")
)

// IsNotFound reports whether err is one of the missing-entity errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrPurchaseNotFound)
}
