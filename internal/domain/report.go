package domain

import (
	"time"

	"github.com/google/uuid"
)

type Report struct {
	ID        uuid.UUID
	PostID    string
	UserID    string
	Reason    string
	CreatedAt time.Time
}
