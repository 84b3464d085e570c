package domain

import "time"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated identity as issued by the identity service.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// ExpiresWithin reports whether the session expires before now+d.
func (s *Session) ExpiresWithin(now time.Time, d time.Duration) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return s.ExpiresAt.Before(now.Add(d))
}
