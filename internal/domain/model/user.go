package model

import "time"

type User struct {
	Username     string     `json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Hobbies      []string   `json:"hobbies"`
	Interests    []string   `json:"interests"`
	Location     string     `json:"location"`
	FriendRadius int        `json:"friend_radius"`
	PhotoURL     *string    `json:"photo_url"`
	LastSearchAt *time.Time `json:"last_search_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type UserSummary struct {
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	PhotoURL  *string `json:"photo_url"`
}
