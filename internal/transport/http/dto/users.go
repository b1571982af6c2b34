package dto

import (
	"time"

	"github.com/maxjeon97/friender/internal/domain/model"
)

type UserResponse struct {
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

func NewUserResponse(u model.User) UserResponse {
	hobbies := u.Hobbies
	if hobbies == nil {
		hobbies = []string{}
	}
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}

	return UserResponse{
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Hobbies:      hobbies,
		Interests:    interests,
		Location:     u.Location,
		FriendRadius: u.FriendRadius,
		PhotoURL:     u.PhotoURL,
		LastSearchAt: u.LastSearchAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type UserSummaryResponse struct {
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	PhotoURL  *string `json:"photo_url"`
}

func NewUserSummaryResponses(items []model.UserSummary) []UserSummaryResponse {
	out := make([]UserSummaryResponse, 0, len(items))
	for _, item := range items {
		out = append(out, UserSummaryResponse{
			Username:  item.Username,
			FirstName: item.FirstName,
			LastName:  item.LastName,
			PhotoURL:  item.PhotoURL,
		})
	}
	return out
}

type UpdateUserRequest struct {
	FirstName    *string   `json:"first_name"`
	LastName     *string   `json:"last_name"`
	Hobbies      *[]string `json:"hobbies"`
	Interests    *[]string `json:"interests"`
	Location     *string   `json:"location"`
	FriendRadius *int      `json:"friend_radius"`
}
