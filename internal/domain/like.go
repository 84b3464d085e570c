package domain

// LikeCount is the per-post aggregate kept in the likes table.
type LikeCount struct {
	PostID string
	Count  int
}

// UserLike records that a user currently likes a post. The store keeps at
// most one per (UserID, PostID).
type UserLike struct {
	UserID string
	PostID string
}
