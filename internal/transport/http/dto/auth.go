package dto

import "time"

type RegisterRequest struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Hobbies      []string `json:"hobbies"`
	Interests    []string `json:"interests"`
	Location     string   `json:"location"`
	FriendRadius int      `json:"friend_radius"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	Username      string    `json:"username"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	AccessExpires time.Time `json:"access_expires"`
}
