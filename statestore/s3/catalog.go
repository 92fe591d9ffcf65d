package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/quantgo/statestore"
)

// ErrConcurrentModification is returned when another writer committed a
// catalog version between read and write. Retry by re-reading the latest
// version.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB API the catalog uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// VersionCatalog tracks the latest committed snapshot per model using
// DynamoDB conditional writes. S3 has no compare-and-swap, so the catalog
// supplies the atomic pointer update that lets several writers publish
// calibrations of the same model without losing commits.
//
// Table schema:
//   - Partition key: model (string)
//   - Sort key: version (number), monotonically increasing
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name quantgo-catalog \
//	  --attribute-definitions AttributeName=model,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=model,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type VersionCatalog struct {
	client    DDBClient
	tableName string
}

// NewVersionCatalog creates a catalog backed by the given DynamoDB table.
func NewVersionCatalog(client DDBClient, tableName string) *VersionCatalog {
	return &VersionCatalog{
		client:    client,
		tableName: tableName,
	}
}

// Publish commits snapshotName as the next version for model. It returns
// the committed version number, or ErrConcurrentModification when another
// writer claimed that version first.
func (c *VersionCatalog) Publish(ctx context.Context, model, snapshotName string) (uint64, error) {
	current, _, err := c.latest(ctx, model)
	if err != nil && !errors.Is(err, statestore.ErrNotFound) {
		return 0, err
	}

	next := current + 1

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]ddbtypes.AttributeValue{
			"model":    &ddbtypes.AttributeValueMemberS{Value: model},
			"version":  &ddbtypes.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"snapshot": &ddbtypes.AttributeValueMemberS{Value: snapshotName},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentModification
		}

		return 0, fmt.Errorf("publish %q: %w", model, err)
	}

	return next, nil
}

// Latest returns the newest committed version and snapshot name for model.
// It returns statestore.ErrNotFound when the model has no committed
// version.
func (c *VersionCatalog) Latest(ctx context.Context, model string) (uint64, string, error) {
	return c.latest(ctx, model)
}

func (c *VersionCatalog) latest(ctx context.Context, model string) (uint64, string, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("#model = :model"),
		ExpressionAttributeNames: map[string]string{
			"#model": "model",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":model": &ddbtypes.AttributeValueMemberS{Value: model},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("query catalog %q: %w", model, err)
	}

	if len(resp.Items) == 0 {
		return 0, "", fmt.Errorf("catalog %q: %w", model, statestore.ErrNotFound)
	}

	item := resp.Items[0]

	versionAttr, ok := item["version"].(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return 0, "", fmt.Errorf("catalog %q: invalid version attribute", model)
	}

	snapshotAttr, ok := item["snapshot"].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return 0, "", fmt.Errorf("catalog %q: invalid snapshot attribute", model)
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("catalog %q: parse version: %w", model, err)
	}

	return version, snapshotAttr.Value, nil
}
