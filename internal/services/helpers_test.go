package services

import (
	"context"
	"net/http"
	"time"
)

// withUserID injects an authenticated user id the way the auth middleware
// does, so handlers under test see a logged-in request.
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), "userID", userID))
}

func testTime() time.Time {
	return time.Date(2025, time.March, 26, 12, 0, 0, 0, time.UTC)
}
