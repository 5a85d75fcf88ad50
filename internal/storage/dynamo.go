package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/ignite/contact-intake/internal/contact"
)

// submissionPK is the partition all submissions share. The sort key
// embeds the creation time, so a descending Query is newest-first.
// Contact volume is nowhere near a single partition's throughput.
const submissionPK = "SUBMISSION"

// dynamoAPI is the slice of the DynamoDB client this store touches.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoStore persists submissions in a single DynamoDB table.
type DynamoStore struct {
	client dynamoAPI
	table  string
}

// submissionItem is the stored row shape. The full submission rides in
// Data as JSON, keyed for time-ordered retrieval.
type submissionItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Data      string `dynamodbav:"Data"`
	Timestamp string `dynamodbav:"Timestamp"`
}

// NewDynamoStore creates a DynamoDB-backed store. An empty profile uses
// the default credential chain (IAM role on ECS).
func NewDynamoStore(ctx context.Context, table, region, profile string) (*DynamoStore, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &DynamoStore{
		client: dynamodb.NewFromConfig(cfg),
		table:  table,
	}, nil
}

// newDynamoStoreWithClient wires an explicit client, for tests.
func newDynamoStoreWithClient(client dynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// Create writes one submission and returns its assigned id.
func (s *DynamoStore) Create(ctx context.Context, sub *contact.Submission) (string, error) {
	if err := checkLimits(sub); err != nil {
		return "", err
	}

	id := uuid.New().String()
	record := *sub
	record.ID = id

	data, err := json.Marshal(&record)
	if err != nil {
		return "", fmt.Errorf("marshaling submission: %w", err)
	}

	item := submissionItem{
		PK:        submissionPK,
		SK:        record.CreatedAt.UTC().Format(time.RFC3339Nano) + "#" + id,
		Data:      string(data),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return "", fmt.Errorf("marshaling item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return "", fmt.Errorf("putting item to DynamoDB: %w", err)
	}

	return id, nil
}

// Recent returns up to limit submissions, newest first.
func (s *DynamoStore) Recent(ctx context.Context, limit int) ([]contact.Submission, error) {
	if limit <= 0 {
		limit = 20
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: submissionPK},
		},
		ScanIndexForward: aws.Bool(false), // Most recent first
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}

	var subs []contact.Submission
	for _, item := range result.Items {
		var dbItem submissionItem
		if err := attributevalue.UnmarshalMap(item, &dbItem); err != nil {
			continue
		}
		var sub contact.Submission
		if err := json.Unmarshal([]byte(dbItem.Data), &sub); err != nil {
			continue
		}
		subs = append(subs, sub)
	}

	return subs, nil
}

// Available reports whether the table answers a DescribeTable call.
func (s *DynamoStore) Available(ctx context.Context) bool {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	return err == nil
}

// Name identifies the backend in logs and startup output.
func (s *DynamoStore) Name() string { return "dynamodb" }
