package dto

import (
	"time"

	"github.com/maxjeon97/friender/internal/domain/model"
)

type SendMessageRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

type MessageResponse struct {
	ID           int64      `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

func NewMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:           m.ID,
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		Body:         m.Body,
		SentAt:       m.SentAt,
		ReadAt:       m.ReadAt,
	}
}

type ThreadMessageResponse struct {
	ID                   int64      `json:"id"`
	CounterpartUsername  string     `json:"counterpart_username"`
	CounterpartFirstName string     `json:"counterpart_first_name"`
	CounterpartLastName  string     `json:"counterpart_last_name"`
	Body                 string     `json:"body"`
	SentAt               time.Time  `json:"sent_at"`
	ReadAt               *time.Time `json:"read_at"`
}

type ThreadResponse struct {
	Messages []ThreadMessageResponse `json:"messages"`
}

func NewThreadResponse(items []model.ThreadMessage) ThreadResponse {
	messages := make([]ThreadMessageResponse, 0, len(items))
	for _, item := range items {
		messages = append(messages, ThreadMessageResponse{
			ID:                   item.ID,
			CounterpartUsername:  item.CounterpartUsername,
			CounterpartFirstName: item.CounterpartFirstName,
			CounterpartLastName:  item.CounterpartLastName,
			Body:                 item.Body,
			SentAt:               item.SentAt,
			ReadAt:               item.ReadAt,
		})
	}
	return ThreadResponse{Messages: messages}
}
