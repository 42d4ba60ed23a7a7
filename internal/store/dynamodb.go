package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/vladimiradmaev/eyecare-tracker/internal/config"
)

// Single-table key attributes
const (
	attrPK         = "PK"
	attrSK         = "SK"
	attrGSI1PK     = "GSI1PK"
	attrGSI1SK     = "GSI1SK"
	attrEntityType = "EntityType"

	skMetadata = "METADATA"

	// sortable fixed-width UTC timestamp for GSI1SK
	gsiDateLayout = "2006-01-02T15:04:05.000000000Z"
)

var keyAttributes = []string{attrPK, attrSK, attrGSI1PK, attrGSI1SK, attrEntityType}

// DynamoDBAPI is the subset of the DynamoDB client used by the store
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoDBStore keeps every collection in one table. Documents are keyed by
// PK=<collection>#<id>, and owned documents are indexed by
// GSI1PK=USER#<uid>#<collection> with the visit date as GSI1SK.
type DynamoDBStore struct {
	client    DynamoDBAPI
	tableName string
	indexName string
}

func NewDynamoDBStore(ctx context.Context, cfg config.DynamoDBConfig) (*DynamoDBStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewDynamoDBStoreWithClient(client, cfg.Table, cfg.IndexName), nil
}

func NewDynamoDBStoreWithClient(client DynamoDBAPI, tableName, indexName string) *DynamoDBStore {
	return &DynamoDBStore{
		client:    client,
		tableName: tableName,
		indexName: indexName,
	}
}

func primaryKey(collection, id string) string {
	return collection + "#" + id
}

func ownerIndexKey(collection, userID string) string {
	return fmt.Sprintf("USER#%s#%s", userID, collection)
}

func indexDate(t time.Time) string {
	return t.UTC().Format(gsiDateLayout)
}

func (s *DynamoDBStore) buildKey(collection, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: primaryKey(collection, id)},
		attrSK: &types.AttributeValueMemberS{Value: skMetadata},
	}
}

// toItem marshals a document and adds the key attributes
func (s *DynamoDBStore) toItem(collection, id string, data map[string]any) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	for k, v := range s.buildKey(collection, id) {
		item[k] = v
	}
	item[attrEntityType] = &types.AttributeValueMemberS{Value: collection}

	if owner := documentOwner(data); owner != "" {
		if date, ok := documentDate(data); ok {
			item[attrGSI1PK] = &types.AttributeValueMemberS{Value: ownerIndexKey(collection, owner)}
			item[attrGSI1SK] = &types.AttributeValueMemberS{Value: indexDate(date)}
		}
	}
	return item, nil
}

// parseItem strips the key attributes and returns the stored document
func parseItem(collection string, item map[string]types.AttributeValue) (Document, error) {
	pk, ok := item[attrPK].(*types.AttributeValueMemberS)
	if !ok {
		return Document{}, fmt.Errorf("item has no %s", attrPK)
	}
	id := strings.TrimPrefix(pk.Value, collection+"#")

	body := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		body[k] = v
	}
	for _, k := range keyAttributes {
		delete(body, k)
	}

	var data map[string]any
	if err := attributevalue.UnmarshalMap(body, &data); err != nil {
		return Document{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return Document{ID: id, Data: data}, nil
}

func (s *DynamoDBStore) putItem(ctx context.Context, item map[string]types.AttributeValue, condition *expression.ConditionBuilder) error {
	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}
	if condition != nil {
		expr, err := expression.NewBuilder().WithCondition(*condition).Build()
		if err != nil {
			return fmt.Errorf("failed to build expression: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}
	_, err := s.client.PutItem(ctx, input)
	return err
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func (s *DynamoDBStore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.New().String()
	item, err := s.toItem(collection, id, data)
	if err != nil {
		return "", err
	}
	cond := expression.Name(attrPK).AttributeNotExists()
	if err := s.putItem(ctx, item, &cond); err != nil {
		return "", fmt.Errorf("failed to create item: %w", err)
	}
	return id, nil
}

func (s *DynamoDBStore) Put(ctx context.Context, collection, id string, data map[string]any) error {
	item, err := s.toItem(collection, id, data)
	if err != nil {
		return err
	}
	if err := s.putItem(ctx, item, nil); err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) Update(ctx context.Context, collection, id string, data map[string]any) error {
	item, err := s.toItem(collection, id, data)
	if err != nil {
		return err
	}
	cond := expression.Name(attrPK).AttributeExists()
	if err := s.putItem(ctx, item, &cond); err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.buildKey(collection, id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	doc, err := parseItem(collection, result.Item)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *DynamoDBStore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	if q.UserID == "" {
		return nil, fmt.Errorf("dynamodb find requires an owner")
	}

	keyCond := expression.Key(attrGSI1PK).Equal(expression.Value(ownerIndexKey(collection, q.UserID)))
	switch {
	case q.From != nil && q.To != nil:
		keyCond = keyCond.And(expression.Key(attrGSI1SK).Between(
			expression.Value(indexDate(*q.From)), expression.Value(indexDate(*q.To))))
	case q.From != nil:
		keyCond = keyCond.And(expression.Key(attrGSI1SK).GreaterThanEqual(expression.Value(indexDate(*q.From))))
	case q.To != nil:
		keyCond = keyCond.And(expression.Key(attrGSI1SK).LessThanEqual(expression.Value(indexDate(*q.To))))
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}

	var docs []Document
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query items: %w", err)
		}
		for _, item := range page.Items {
			doc, err := parseItem(collection, item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			if q.Limit > 0 && len(docs) == q.Limit {
				return docs, nil
			}
		}
	}
	return docs, nil
}

func (s *DynamoDBStore) Delete(ctx context.Context, collection, id string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(attrPK).AttributeExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       s.buildKey(collection, id),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) Close() error {
	return nil
}
