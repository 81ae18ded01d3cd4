package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"roadgenie/internal/domain"
)

const defaultHistoryLimit = 50

// llmFailureReply stands in for the AI text when the model is unreachable.
// It carries no tags, so the rest of the pipeline degrades to "no map action"
// without a special case.
const llmFailureReply = "Sorry, I couldn't connect to the AI brain. Check your API key and network."

type LLMClient interface {
	Generate(ctx context.Context, systemInstruction, userMessage string) (string, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, place string) (domain.Coordinates, error)
}

type RouteFinder interface {
	Route(ctx context.Context, start, end domain.Coordinates) (domain.Polyline, error)
}

type ConversationStore interface {
	SaveConversation(ctx context.Context, conv domain.Conversation) error
	GetHistory(ctx context.Context, owner string, limit int) ([]domain.Conversation, error)
}

// ChatService runs one chat turn: LLM call, tag extraction, map-action
// decision, persistence.
type ChatService struct {
	llm          LLMClient
	geocoder     Geocoder
	router       RouteFinder
	store        ConversationStore
	historyLimit int
}

type ChatInput struct {
	UserID  string
	Message string
}

type ChatOutput struct {
	Response  string
	MapAction *domain.MapAction
}

func NewChatService(llm LLMClient, geocoder Geocoder, router RouteFinder, store ConversationStore, historyLimit int) (*ChatService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if geocoder == nil {
		return nil, errors.New("usecase: geocoder must not be nil")
	}
	if router == nil {
		return nil, errors.New("usecase: route finder must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: conversation store must not be nil")
	}
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &ChatService{
		llm:          llm,
		geocoder:     geocoder,
		router:       router,
		store:        store,
		historyLimit: historyLimit,
	}, nil
}

// Chat handles one turn. LLM, geocode and route failures all degrade into a
// valid response; only invalid input and persistence failures surface as
// errors. The turn is reported successful only after the conversation record
// is written.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return ChatOutput{}, newError(ErrorUnauthorized, "missing_user", nil)
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}

	aiText, err := s.llm.Generate(ctx, systemInstruction(), message)
	if err != nil {
		slog.Error("llm call failed, substituting apology", "err", err)
		aiText = llmFailureReply
	}

	ex := extractTags(aiText)
	action, notice := s.decideMapAction(ctx, ex)
	response := ex.cleaned + notice

	conv := domain.Conversation{
		Owner:       userID,
		UserMessage: message,
		AIResponse:  response,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return ChatOutput{}, newError(ErrorInternal, "conversation_write_error", err)
	}

	return ChatOutput{Response: response, MapAction: action}, nil
}

// History returns the caller's conversation records, oldest first, for
// initial session load.
func (s *ChatService) History(ctx context.Context, userID string) ([]domain.Conversation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, newError(ErrorUnauthorized, "missing_user", nil)
	}
	history, err := s.store.GetHistory(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, newError(ErrorInternal, "conversation_read_error", err)
	}
	return history, nil
}
