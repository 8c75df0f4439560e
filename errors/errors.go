package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrMeetingNotFound  = fmt.Errorf("meeting not found")
	ErrNotInvited       = fmt.Errorf("not invited for the meeting")
	ErrUnauthorized     = fmt.Errorf("not authorized")
	ErrNotWaiting       = fmt.Errorf("participant is not in the waiting room")
	ErrStoreUnavailable = fmt.Errorf("meeting store unavailable")
	ErrConflict         = fmt.Errorf("conditional update lost the race")
	ErrInvalidToken     = fmt.Errorf("invalid or expired join token")
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
)

// SafeMessage converts an internal error into the reason string carried by
// the "error" wire event. Unknown errors collapse to a generic message so
// internal state never leaks to a client.
func SafeMessage(err error) string {
	switch {
	case stderrors.Is(err, ErrMeetingNotFound):
		return "Meeting not found"
	case stderrors.Is(err, ErrNotInvited):
		return "Not invited for the meeting"
	case stderrors.Is(err, ErrUnauthorized):
		return "You are not authorized to perform this action"
	case stderrors.Is(err, ErrNotWaiting):
		return "This participant is not in the waiting room"
	case stderrors.Is(err, ErrStoreUnavailable):
		return "Meeting service is temporarily unavailable"
	case stderrors.Is(err, ErrInvalidToken):
		return "Invalid or expired join token"
	case stderrors.Is(err, ErrUserNotFound):
		return "User not found"
	default:
		return "Something went wrong"
	}
}
