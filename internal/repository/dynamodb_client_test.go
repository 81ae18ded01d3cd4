package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"roadgenie/internal/domain"
)

type fakeDynamo struct {
	putErr       error
	queryOut     *dynamodb.QueryOutput
	queryErr     error
	lastPutInput *dynamodb.PutItemInput
	lastQueryIn  *dynamodb.QueryInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryIn = in
	return f.queryOut, f.queryErr
}

func makeItem(owner, userMessage, aiResponse, createdAt string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":          &types.AttributeValueMemberS{Value: userPK(owner)},
		"SK":          &types.AttributeValueMemberS{Value: skPrefixMsg + createdAt},
		"owner":       &types.AttributeValueMemberS{Value: owner},
		"userMessage": &types.AttributeValueMemberS{Value: userMessage},
		"aiResponse":  &types.AttributeValueMemberS{Value: aiResponse},
		"createdAt":   &types.AttributeValueMemberS{Value: createdAt},
	}
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "test-table")
	require.NoError(t, err)
	return c
}

func testConversation() domain.Conversation {
	return domain.Conversation{
		Owner:       "u1",
		UserMessage: "Route me from Hyderabad to Delhi",
		AIResponse:  "Sure! new route suggested",
		Timestamp:   time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC),
	}
}

func TestSaveConversation_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	err := c.SaveConversation(context.Background(), testConversation())
	require.NoError(t, err)
	require.NotNil(t, db.lastPutInput)
	require.Equal(t, "USER#u1", db.lastPutInput.Item["PK"].(*types.AttributeValueMemberS).Value)
	require.Contains(t, db.lastPutInput.Item["SK"].(*types.AttributeValueMemberS).Value, "MSG#2026-02-25T10:00:00")
	require.Equal(t, "Sure! new route suggested", db.lastPutInput.Item["aiResponse"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "attribute_not_exists(PK) AND attribute_not_exists(SK)", *db.lastPutInput.ConditionExpression)
}

func TestSaveConversation_DefaultsTimestamp(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	conv := testConversation()
	conv.Timestamp = time.Time{}
	require.NoError(t, c.SaveConversation(context.Background(), conv))
	require.NotEmpty(t, db.lastPutInput.Item["createdAt"].(*types.AttributeValueMemberS).Value)
}

func TestSaveConversation_MissingOwner(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	conv := testConversation()
	conv.Owner = " "
	err := c.SaveConversation(context.Background(), conv)
	require.Error(t, err)
	require.Contains(t, err.Error(), "owner")
}

func TestSaveConversation_MissingMessage(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	conv := testConversation()
	conv.UserMessage = ""
	err := c.SaveConversation(context.Background(), conv)
	require.Error(t, err)
	require.Contains(t, err.Error(), "message")
}

func TestSaveConversation_DynamoError(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("ProvisionedThroughputExceededException")}
	c := mustNewClient(t, db)
	err := c.SaveConversation(context.Background(), testConversation())
	require.Error(t, err)
	require.Contains(t, err.Error(), "SaveConversation")
}

func TestGetHistory_HappyPath(t *testing.T) {
	db := &fakeDynamo{
		queryOut: &dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{
				makeItem("u1", "second?", "yes", "2026-02-27T12:00:00Z"),
				makeItem("u1", "first?", "hello", "2026-02-27T11:00:00Z"),
			},
		},
	}
	c := mustNewClient(t, db)
	convs, err := c.GetHistory(context.Background(), "u1", 20)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	// Newest-first query results come back chronological.
	require.Equal(t, "first?", convs[0].UserMessage)
	require.Equal(t, "second?", convs[1].UserMessage)
	require.Equal(t, time.Date(2026, 2, 27, 11, 0, 0, 0, time.UTC), convs[0].Timestamp)
}

func TestGetHistory_QueryShape(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{}}
	c := mustNewClient(t, db)
	_, err := c.GetHistory(context.Background(), "u1", 20)
	require.NoError(t, err)
	require.Equal(t, "PK = :pk AND begins_with(SK, :prefix)", *db.lastQueryIn.KeyConditionExpression)
	require.False(t, *db.lastQueryIn.ScanIndexForward)
	require.Equal(t, int32(20), *db.lastQueryIn.Limit)
	require.Equal(t, "USER#u1", db.lastQueryIn.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value)
}

func TestGetHistory_EmptyResult(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{}}
	c := mustNewClient(t, db)
	convs, err := c.GetHistory(context.Background(), "u1", 20)
	require.NoError(t, err)
	require.Empty(t, convs)
}

func TestGetHistory_QueryError(t *testing.T) {
	db := &fakeDynamo{queryErr: errors.New("ResourceNotFoundException")}
	c := mustNewClient(t, db)
	_, err := c.GetHistory(context.Background(), "u1", 20)
	require.Error(t, err)
	require.Contains(t, err.Error(), "GetHistory")
}

func TestGetHistory_MalformedItem(t *testing.T) {
	item := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "USER#u1"},
		"SK": &types.AttributeValueMemberS{Value: "MSG#ts"},
	}
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}}
	c := mustNewClient(t, db)
	_, err := c.GetHistory(context.Background(), "u1", 20)
	require.Error(t, err)
	require.Contains(t, err.Error(), "owner")
}

func TestGetHistory_MissingOwner(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	_, err := c.GetHistory(context.Background(), " ", 20)
	require.Error(t, err)
	require.Contains(t, err.Error(), "owner")
}

func TestMsgSK_ChronologicalOrder(t *testing.T) {
	earlier := msgSK(time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC))
	later := msgSK(time.Date(2026, 2, 25, 10, 0, 1, 0, time.UTC))
	require.Less(t, earlier, later)
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil, "test-table")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestNew_EmptyTableName(t *testing.T) {
	_, err := New(&fakeDynamo{}, " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be empty")
}
