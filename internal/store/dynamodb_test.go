package store

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
)

// fakeDynamoDB records requests and replays canned responses
type fakeDynamoDB struct {
	puts    []*dynamodb.PutItemInput
	putErr  error
	getOut  *dynamodb.GetItemOutput
	deletes []*dynamodb.DeleteItemInput
	delErr  error
	queries []*dynamodb.QueryInput
	pages   []*dynamodb.QueryOutput
}

func (f *fakeDynamoDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamoDB) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeDynamoDB) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deletes = append(f.deletes, in)
	return &dynamodb.DeleteItemOutput{}, f.delErr
}

func (f *fakeDynamoDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	page := f.pages[len(f.queries)-1]
	return page, nil
}

func attrS(item map[string]types.AttributeValue, key string) string {
	if v, ok := item[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func TestDynamoDBStore_CreateWritesKeys(t *testing.T) {
	fake := &fakeDynamoDB{}
	s := NewDynamoDBStoreWithClient(fake, "eyecare", "GSI1")

	id, err := s.Create(context.Background(), testCollection, visitDoc("u1", day(7)))
	require.NoError(t, err)
	require.Len(t, fake.puts, 1)

	put := fake.puts[0]
	assert.Equal(t, "eyecare", aws.ToString(put.TableName))
	assert.Contains(t, aws.ToString(put.ConditionExpression), "attribute_not_exists")

	item := put.Item
	assert.Equal(t, testCollection+"#"+id, attrS(item, attrPK))
	assert.Equal(t, skMetadata, attrS(item, attrSK))
	assert.Equal(t, "USER#u1#"+testCollection, attrS(item, attrGSI1PK))
	assert.Equal(t, "2024-05-07T10:00:00.000000000Z", attrS(item, attrGSI1SK))
	assert.Equal(t, "u1", attrS(item, domain.KeyUserID))
}

func TestDynamoDBStore_UnownedDocumentSkipsIndex(t *testing.T) {
	fake := &fakeDynamoDB{}
	s := NewDynamoDBStoreWithClient(fake, "eyecare", "GSI1")

	require.NoError(t, s.Put(context.Background(), domain.CollectionUsers, "uid-1", map[string]any{
		domain.KeyName:  "Anna",
		domain.KeyEmail: "anna@example.com",
	}))
	item := fake.puts[0].Item
	assert.Nil(t, fake.puts[0].ConditionExpression)
	assert.NotContains(t, item, attrGSI1PK)
	assert.NotContains(t, item, attrGSI1SK)
}

func TestDynamoDBStore_ConditionFailureIsNotFound(t *testing.T) {
	fake := &fakeDynamoDB{
		putErr: &types.ConditionalCheckFailedException{},
		delErr: &types.ConditionalCheckFailedException{},
	}
	s := NewDynamoDBStoreWithClient(fake, "eyecare", "GSI1")
	ctx := context.Background()

	assert.ErrorIs(t, s.Update(ctx, testCollection, "x", visitDoc("u1", day(1))), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, testCollection, "x"), ErrNotFound)
}

func TestDynamoDBStore_GetStripsKeys(t *testing.T) {
	fake := &fakeDynamoDB{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		attrPK:           &types.AttributeValueMemberS{Value: testCollection + "#abc"},
		attrSK:           &types.AttributeValueMemberS{Value: skMetadata},
		attrGSI1PK:       &types.AttributeValueMemberS{Value: "USER#u1#" + testCollection},
		attrGSI1SK:       &types.AttributeValueMemberS{Value: "2024-05-01T10:00:00.000000000Z"},
		attrEntityType:   &types.AttributeValueMemberS{Value: testCollection},
		domain.KeyUserID: &types.AttributeValueMemberS{Value: "u1"},
		domain.KeyGCC:    &types.AttributeValueMemberN{Value: "74"},
		domain.KeyEdited: &types.AttributeValueMemberBOOL{Value: false},
	}}}
	s := NewDynamoDBStoreWithClient(fake, "eyecare", "GSI1")

	doc, err := s.Get(context.Background(), testCollection, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", doc.ID)
	assert.Equal(t, map[string]any{
		domain.KeyUserID: "u1",
		domain.KeyGCC:    float64(74),
		domain.KeyEdited: false,
	}, doc.Data)
}

func TestDynamoDBStore_GetMissing(t *testing.T) {
	s := NewDynamoDBStoreWithClient(&fakeDynamoDB{}, "eyecare", "GSI1")
	_, err := s.Get(context.Background(), testCollection, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoDBStore_FindQueriesIndexNewestFirst(t *testing.T) {
	item := func(id string) map[string]types.AttributeValue {
		return map[string]types.AttributeValue{
			attrPK:           &types.AttributeValueMemberS{Value: testCollection + "#" + id},
			domain.KeyUserID: &types.AttributeValueMemberS{Value: "u1"},
		}
	}
	fake := &fakeDynamoDB{pages: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{item("c"), item("b")},
			LastEvaluatedKey: map[string]types.AttributeValue{attrPK: &types.AttributeValueMemberS{Value: "b"}},
		},
		{Items: []map[string]types.AttributeValue{item("a")}},
	}}
	s := NewDynamoDBStoreWithClient(fake, "eyecare", "GSI1")

	from, to := day(1), day(9)
	docs, err := s.Find(context.Background(), testCollection, Query{UserID: "u1", From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, docIDs(docs))

	require.Len(t, fake.queries, 2)
	q := fake.queries[0]
	assert.Equal(t, "GSI1", aws.ToString(q.IndexName))
	assert.False(t, aws.ToBool(q.ScanIndexForward))
	assert.Contains(t, aws.ToString(q.KeyConditionExpression), "BETWEEN")
}

func TestDynamoDBStore_FindRequiresOwner(t *testing.T) {
	s := NewDynamoDBStoreWithClient(&fakeDynamoDB{}, "eyecare", "GSI1")
	_, err := s.Find(context.Background(), testCollection, Query{})
	assert.Error(t, err)
}
