package storage

import (
	"context"
	"errors"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

var _ DynamoDBClient = (*mockDynamoDBClient)(nil)

// mockDynamoDBClient keeps items in a map keyed by the "key" attribute
type mockDynamoDBClient struct {
	mu        sync.Mutex
	items     map[string]map[string]types.AttributeValue
	getErr    error
	tableSeen string
}

func newMockDynamoDBClient() *mockDynamoDBClient {
	return &mockDynamoDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(attrs map[string]types.AttributeValue) string {
	if v, ok := attrs["key"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *mockDynamoDBClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tableSeen = *params.TableName
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &dynamodb.GetItemOutput{Item: m.items[keyOf(params.Key)]}, nil
}

func (m *mockDynamoDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[keyOf(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamoDBClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, keyOf(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoStorage(t *testing.T) {
	client := newMockDynamoDBClient()
	exerciseStorage(t, NewDynamoStorage(client, "tidemap-state"))
	assert.Equal(t, "tidemap-state", client.tableSeen)
}

func TestDynamoStorageGetError(t *testing.T) {
	client := newMockDynamoDBClient()
	client.getErr = errors.New("throttled")

	_, _, err := NewDynamoStorage(client, "t").GetItem(context.Background(), "k")
	require.Error(t, err)

	var storageErr *Error
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "get", storageErr.Op)
}
