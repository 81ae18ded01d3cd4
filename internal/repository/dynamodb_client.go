package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"roadgenie/internal/domain"
)

const (
	skPrefixMsg = "MSG#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client wraps a DynamoDB table holding per-user conversation records.
// Records are append-only: one conditional put per turn, no updates.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// userPK returns the DynamoDB partition key for a user's conversations.
func userPK(owner string) string {
	return "USER#" + owner
}

// msgSK returns the sort key for a conversation record; RFC3339Nano keeps
// lexicographic order equal to chronological order.
func msgSK(ts time.Time) string {
	return skPrefixMsg + ts.UTC().Format(time.RFC3339Nano)
}

// ttlValue returns a Unix timestamp 30 days after the record's creation.
func ttlValue(ts time.Time) int64 {
	return ts.Add(ttlDuration).Unix()
}

// SaveConversation persists one completed chat turn. The conditional put
// keeps the table append-only: an existing record is never overwritten.
func (c *Client) SaveConversation(ctx context.Context, conv domain.Conversation) error {
	if strings.TrimSpace(conv.Owner) == "" {
		return errors.New("repository: SaveConversation: owner is required")
	}
	if conv.UserMessage == "" {
		return errors.New("repository: SaveConversation: user message is required")
	}
	ts := conv.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                conversationItem(conv, ts),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveConversation: %w", err)
	}
	return nil
}

// GetHistory queries a user's conversation records and returns them in
// chronological order. The query reads newest first so the limit keeps the
// most recent turns, then reverses before returning.
func (c *Client) GetHistory(ctx context.Context, owner string, limit int) ([]domain.Conversation, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, errors.New("repository: GetHistory: owner is required")
	}

	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(owner)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixMsg},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: GetHistory query: %w", err)
	}

	convs := make([]domain.Conversation, 0, len(out.Items))
	for _, item := range out.Items {
		conv, err := itemToConversation(item)
		if err != nil {
			return nil, fmt.Errorf("repository: GetHistory unmarshal: %w", err)
		}
		convs = append(convs, conv)
	}
	// Reverse to chronological order.
	for i, j := 0, len(convs)-1; i < j; i, j = i+1, j-1 {
		convs[i], convs[j] = convs[j], convs[i]
	}
	return convs, nil
}

func conversationItem(conv domain.Conversation, ts time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":          &types.AttributeValueMemberS{Value: userPK(conv.Owner)},
		"SK":          &types.AttributeValueMemberS{Value: msgSK(ts)},
		"owner":       &types.AttributeValueMemberS{Value: conv.Owner},
		"userMessage": &types.AttributeValueMemberS{Value: conv.UserMessage},
		"aiResponse":  &types.AttributeValueMemberS{Value: conv.AIResponse},
		"createdAt":   &types.AttributeValueMemberS{Value: ts.UTC().Format(time.RFC3339Nano)},
		"ttl":         &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue(ts))},
	}
}

// itemToConversation converts a DynamoDB attribute map to a Conversation.
func itemToConversation(item map[string]types.AttributeValue) (domain.Conversation, error) {
	owner, err := strAttr(item, "owner")
	if err != nil {
		return domain.Conversation{}, err
	}
	userMessage, err := strAttr(item, "userMessage")
	if err != nil {
		return domain.Conversation{}, err
	}
	aiResponse, _ := strAttr(item, "aiResponse") // allow empty

	conv := domain.Conversation{
		Owner:       owner,
		UserMessage: userMessage,
		AIResponse:  aiResponse,
	}
	if createdAt, err := strAttr(item, "createdAt"); err == nil {
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			conv.Timestamp = ts
		}
	}
	return conv, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
