package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/domain/model"
	"github.com/maxjeon97/friender/internal/services/messages"
	"github.com/maxjeon97/friender/internal/transport/http/dto"
	apierrors "github.com/maxjeon97/friender/internal/transport/http/errors"
)

type MessageService interface {
	Send(ctx context.Context, fromUsername, toUsername, body string) (model.Message, error)
	Get(ctx context.Context, id int64, requester string) (model.Message, error)
	MarkRead(ctx context.Context, id int64, requester string) (model.Message, error)
	ListReceived(ctx context.Context, username string) ([]model.ThreadMessage, error)
	ListSent(ctx context.Context, username string) ([]model.ThreadMessage, error)
}

type MessageHandler struct {
	messages MessageService
	logger   *zap.Logger
}

func NewMessageHandler(messagesSvc MessageService, logger *zap.Logger) *MessageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageHandler{messages: messagesSvc, logger: logger}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, apierrors.Validation(err.Error()))
		return
	}

	msg, err := h.messages.Send(r.Context(), identity.Username, req.ToUsername, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrValidation):
			apierrors.Write(w, apierrors.Validation(err.Error()))
		case errors.Is(err, messages.ErrRecipientAbsent):
			apierrors.Write(w, apierrors.NotFound("recipient does not exist"))
		default:
			writeInternal(w, h.logger, err)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, dto.NewMessageResponse(msg))
}

func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return
	}

	id, err := messageID(r)
	if err != nil {
		apierrors.Write(w, apierrors.Validation("message id must be a positive integer"))
		return
	}

	msg, err := h.messages.Get(r.Context(), id, identity.Username)
	if err != nil {
		h.writeMessageError(w, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dto.NewMessageResponse(msg))
}

// MarkRead stamps the read timestamp. Only the recipient may call it, and
// repeat calls return the message unchanged.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return
	}

	id, err := messageID(r)
	if err != nil {
		apierrors.Write(w, apierrors.Validation("message id must be a positive integer"))
		return
	}

	msg, err := h.messages.MarkRead(r.Context(), id, identity.Username)
	if err != nil {
		h.writeMessageError(w, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dto.NewMessageResponse(msg))
}

func (h *MessageHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	h.listThread(w, r, h.messages.ListReceived)
}

func (h *MessageHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	h.listThread(w, r, h.messages.ListSent)
}

func (h *MessageHandler) listThread(
	w http.ResponseWriter,
	r *http.Request,
	list func(context.Context, string) ([]model.ThreadMessage, error),
) {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return
	}

	username := chi.URLParam(r, "username")
	if identity.Username != username {
		apierrors.Write(w, apierrors.Forbidden("cannot access another user's messages"))
		return
	}

	items, err := list(r.Context(), username)
	if err != nil {
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dto.NewThreadResponse(items))
}

func (h *MessageHandler) writeMessageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, messages.ErrValidation):
		apierrors.Write(w, apierrors.Validation(err.Error()))
	case errors.Is(err, messages.ErrNotFound):
		apierrors.Write(w, apierrors.NotFound("message not found"))
	case errors.Is(err, messages.ErrForbidden):
		apierrors.Write(w, apierrors.Forbidden("not a participant of this message"))
	default:
		writeInternal(w, h.logger, err)
	}
}

func messageID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid message id")
	}
	return id, nil
}
