package users

import "time"

// User is the account written on Google login. Documents and chat sessions
// use ID as their owner key.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	PictureURL string    `json:"pictureUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Profile is the view served by GET /me.
type Profile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	PictureURL string `json:"pictureUrl"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, FullName: u.FullName, PictureURL: u.PictureURL}
}
