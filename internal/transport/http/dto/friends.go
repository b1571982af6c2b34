package dto

import "github.com/maxjeon97/friender/internal/domain/model"

type FriendsResponse struct {
	Friends []UserSummaryResponse `json:"friends"`
}

func NewFriendsResponse(items []model.UserSummary) FriendsResponse {
	return FriendsResponse{Friends: NewUserSummaryResponses(items)}
}
