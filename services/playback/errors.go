// errors.go — terminal failures of the media access flow.
//
// Every failure carries a generic user-visible message and, separately, the
// collaborator's underlying error for logs. Raw collaborator payloads are
// never written to responses.
package playback

import "net/http"

// accessError is a terminal outcome of the media access flow. No failure is
// retried internally; clients re-run the whole flow on a fresh request.
type accessError struct {
	status  int
	outcome string // metrics label
	message string // user-visible, generic
	path    string // normalized video path, echoed on not-found for diagnostics
	cause   error  // collaborator error, logged only
}

func (e *accessError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func errMissingToken() *accessError {
	return &accessError{status: http.StatusUnauthorized, outcome: "missing_token", message: "Missing auth token"}
}

func errInvalidToken() *accessError {
	return &accessError{status: http.StatusUnauthorized, outcome: "invalid_token", message: "Invalid token"}
}

func errContentNotFound() *accessError {
	return &accessError{status: http.StatusNotFound, outcome: "content_not_found", message: "Content not found"}
}

// errSubscriptionInactive covers both an absent subscription row and an
// expired one. The response must not reveal which.
func errSubscriptionInactive() *accessError {
	return &accessError{status: http.StatusForbidden, outcome: "subscription_inactive", message: "Subscription inactive"}
}

func errMissingVideoPath() *accessError {
	return &accessError{status: http.StatusBadRequest, outcome: "missing_video_path", message: "Missing video_path"}
}

func errMediaNotFound(path string) *accessError {
	return &accessError{
		status:  http.StatusNotFound,
		outcome: "media_not_found",
		message: "Video file not found in storage for this video_path",
		path:    path,
	}
}

func errSignFailed(path string, cause error) *accessError {
	return &accessError{
		status:  http.StatusInternalServerError,
		outcome: "sign_failed",
		message: "Failed to create signed URL",
		path:    path,
		cause:   cause,
	}
}

func errUpstream(cause error) *accessError {
	return &accessError{
		status:  http.StatusInternalServerError,
		outcome: "upstream_error",
		message: "Server error",
		cause:   cause,
	}
}
