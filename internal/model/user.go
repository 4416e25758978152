package model

import "time"

// User is a person signed in through Google.
type User struct {
	ID             string    `json:"id"`
	ProviderUID    string    `json:"provider_uid"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}
