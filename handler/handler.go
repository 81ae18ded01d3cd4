package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"roadgenie/internal/domain"
	"roadgenie/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// UseCase is the chat service surface the handler depends on.
type UseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	History(ctx context.Context, userID string) ([]domain.Conversation, error)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response  string            `json:"response"`
	MapAction *domain.MapAction `json:"map_action"`
}

type historyEntry struct {
	UserMessage string `json:"user_message"`
	AIResponse  string `json:"ai_response"`
	Timestamp   string `json:"timestamp"`
}

type historyResponse struct {
	History []historyEntry `json:"history"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler adapts API Gateway proxy events to the chat use case.
type Handler struct {
	uc UseCase
}

func NewHandler(uc UseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc}, nil
}

// Handle routes one API Gateway event. Authentication happens upstream in
// the API Gateway authorizer; the handler only reads the caller identity the
// authorizer attached.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)

	userID := callerIdentity(event)
	if userID == "" {
		return jsonResponse(http.StatusUnauthorized, errorResponse{Error: string(usecase.ErrorUnauthorized)}, corrID), nil
	}

	path := strings.TrimRight(event.Path, "/")
	switch {
	case event.HTTPMethod == http.MethodPost && path == "/api/chat":
		return h.handleChat(ctx, event, userID, corrID), nil
	case event.HTTPMethod == http.MethodGet && path == "/api/chat/history":
		return h.handleHistory(ctx, userID, corrID), nil
	case path == "/api/chat" || path == "/api/chat/history":
		return jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"}, corrID), nil
	default:
		return jsonResponse(http.StatusNotFound, errorResponse{Error: "NOT_FOUND"}, corrID), nil
	}
}

func (h *Handler) handleChat(ctx context.Context, event events.APIGatewayProxyRequest, userID, corrID string) events.APIGatewayProxyResponse {
	var req chatRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}, corrID)
	}

	out, err := h.uc.Chat(ctx, usecase.ChatInput{UserID: userID, Message: req.Message})
	if err != nil {
		return errorToResponse(err, corrID)
	}

	return jsonResponse(http.StatusOK, chatResponse{
		Response:  out.Response,
		MapAction: out.MapAction,
	}, corrID)
}

func (h *Handler) handleHistory(ctx context.Context, userID, corrID string) events.APIGatewayProxyResponse {
	history, err := h.uc.History(ctx, userID)
	if err != nil {
		return errorToResponse(err, corrID)
	}

	entries := make([]historyEntry, 0, len(history))
	for _, conv := range history {
		entries = append(entries, historyEntry{
			UserMessage: conv.UserMessage,
			AIResponse:  conv.AIResponse,
			Timestamp:   conv.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return jsonResponse(http.StatusOK, historyResponse{History: entries}, corrID)
}

// errorToResponse maps use case errors to HTTP responses. Unknown errors are
// reported as internal without leaking details to the caller.
func errorToResponse(err error, corrID string) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		switch ucErr.Code {
		case usecase.ErrorInvalidInput:
			return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(ucErr.Code)}, corrID)
		case usecase.ErrorUnauthorized:
			return jsonResponse(http.StatusUnauthorized, errorResponse{Error: string(ucErr.Code)}, corrID)
		}
	}
	slog.Error("request failed", "err", err, "correlationId", corrID)
	return jsonResponse(http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}, corrID)
}

// callerIdentity extracts the authenticated principal set by the API Gateway
// authorizer: Cognito claims first, then a custom authorizer's principalId.
func callerIdentity(event events.APIGatewayProxyRequest) string {
	auth := event.RequestContext.Authorizer
	if auth == nil {
		return ""
	}
	if claims, ok := auth["claims"].(map[string]any); ok {
		if sub, ok := claims["sub"].(string); ok && strings.TrimSpace(sub) != "" {
			return sub
		}
	}
	if pid, ok := auth["principalId"].(string); ok && strings.TrimSpace(pid) != "" {
		return pid
	}
	return ""
}

// correlationID returns the request-supplied correlation ID (header lookup is
// case-insensitive) or generates one.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return uuid.NewString()
}

func jsonResponse(status int, body any, corrID string) events.APIGatewayProxyResponse {
	encoded, err := json.Marshal(body)
	if err != nil {
		slog.Error("failed to encode response body", "err", err)
		status = http.StatusInternalServerError
		encoded = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(encoded),
	}
}
