package domain

import "time"

// Post is the record the custom backend returns from /getPost.
type Post struct {
	ID        string    `json:"id"`
	Caption   string    `json:"caption"`
	UserID    string    `json:"user_id"`
	FileURLs  []string  `json:"file_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is the author record returned from /getUserInfo.
type Profile struct {
	Username          string `json:"username"`
	FullName          string `json:"full_name,omitempty"`
	Bio               string `json:"bio,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// DefaultProfilePictureURL is shown when the author has no picture.
const DefaultProfilePictureURL = "https://upload.wikimedia.org/wikipedia/commons/a/ac/Default_pfp.jpg"

// PictureURL returns the profile picture or the default one.
func (p Profile) PictureURL() string {
	if p.ProfilePictureURL == "" {
		return DefaultProfilePictureURL
	}
	return p.ProfilePictureURL
}

// PostDetail is a post resolved all the way to its author's profile.
type PostDetail struct {
	Post     Post
	Username string
	Profile  Profile
}
