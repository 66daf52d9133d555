package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DistributedRateLimiter throttles requests across the Lambda fleet using a
// DynamoDB counter per key and fixed window. Extraction runs are the main
// consumer: a full re-clustering pass is expensive, so each user gets a
// small budget per window regardless of which instance serves the request.
type DistributedRateLimiter struct {
	client *dynamodb.Client
	table  string
	limit  int
	window time.Duration
	scope  string
}

// NewDistributedRateLimiter creates a limiter allowing limit requests per
// window. The scope separates counters of different endpoints sharing the
// table, e.g. "EXTRACT".
func NewDistributedRateLimiter(client *dynamodb.Client, table string, limit int, window time.Duration, scope string) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client: client,
		table:  table,
		limit:  limit,
		window: window,
		scope:  scope,
	}
}

// Allow atomically increments the counter for the current window and
// reports whether the key is still under its budget. When DynamoDB is
// unreachable the limiter fails open; throttling is protection, not an
// availability dependency.
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := time.Now().Truncate(r.window)

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.table),
		Key:                 r.itemKey(key, windowStart),
		UpdateExpression:    aws.String("ADD RequestCount :one SET ExpiresAt = if_not_exists(ExpiresAt, :ttl)"),
		ConditionExpression: aws.String("attribute_not_exists(RequestCount) OR RequestCount < :limit"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":limit": &types.AttributeValueMemberN{Value: strconv.Itoa(r.limit)},
			":ttl": &types.AttributeValueMemberN{
				Value: strconv.FormatInt(windowStart.Add(2*r.window).Unix(), 10),
			},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return false, nil
		}
		return true, nil
	}

	return true, nil
}

// Reset clears the counter for the current window
func (r *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	windowStart := time.Now().Truncate(r.window)

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       r.itemKey(key, windowStart),
	})
	if err != nil {
		return fmt.Errorf("failed to reset rate limit counter: %w", err)
	}
	return nil
}

// itemKey builds the counter item key. Counters live in the service table
// under a THROTTLE partition, one item per key and window; the ExpiresAt
// TTL attribute garbage-collects closed windows.
func (r *DistributedRateLimiter) itemKey(key string, windowStart time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{
			Value: fmt.Sprintf("THROTTLE#%s#%s", r.scope, key),
		},
		"SK": &types.AttributeValueMemberS{
			Value: fmt.Sprintf("WINDOW#%d", windowStart.Unix()),
		},
	}
}
