package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockHeld is returned when another worker holds the requested lock
var ErrLockHeld = errors.New("lock already held")

// RunLock serializes pipeline runs through DynamoDB conditional writes.
// One clustering run per user at a time: two workers re-clustering the
// same activities concurrently would race on the stored clusters.
type RunLock struct {
	client *dynamodb.Client
	table  string
	logger *zap.Logger
}

// NewRunLock creates a lock manager backed by the service table
func NewRunLock(client *dynamodb.Client, table string, logger *zap.Logger) *RunLock {
	return &RunLock{
		client: client,
		table:  table,
		logger: logger,
	}
}

// Acquire attempts to take the lock for a resource. It succeeds when no
// lock item exists or the existing one has expired; a crashed worker frees
// its lock after duration without any cleanup step.
func (rl *RunLock) Acquire(ctx context.Context, resource, owner string, duration time.Duration) (*Lock, error) {
	now := time.Now()
	expiresAt := now.Add(duration)
	lockID := uuid.New().String()

	_, err := rl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(rl.table),
		Item: map[string]types.AttributeValue{
			"PK":         &types.AttributeValueMemberS{Value: "RUNLOCK#" + resource},
			"SK":         &types.AttributeValueMemberS{Value: "RUNLOCK"},
			"LockID":     &types.AttributeValueMemberS{Value: lockID},
			"Owner":      &types.AttributeValueMemberS{Value: owner},
			"AcquiredAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
			"ExpiresAt":  &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt.Unix(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil, fmt.Errorf("%w: %s", ErrLockHeld, resource)
		}
		return nil, fmt.Errorf("failed to acquire lock for %s: %w", resource, err)
	}

	rl.logger.Debug("run lock acquired",
		zap.String("resource", resource),
		zap.String("owner", owner),
		zap.Time("expiresAt", expiresAt))

	return &Lock{
		manager:   rl,
		resource:  resource,
		lockID:    lockID,
		owner:     owner,
		expiresAt: expiresAt,
	}, nil
}

// TryAcquire retries Acquire with backoff until the timeout elapses.
// Contention errors retry; anything else aborts immediately.
func (rl *RunLock) TryAcquire(ctx context.Context, resource, owner string, duration, timeout time.Duration) (*Lock, error) {
	deadline := time.Now().Add(timeout)
	backoff := 100 * time.Millisecond

	for {
		lock, err := rl.Acquire(ctx, resource, owner, duration)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return nil, err
		}
		if time.Now().Add(backoff).After(deadline) {
			return nil, fmt.Errorf("timed out waiting for lock on %s: %w", resource, ErrLockHeld)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = backoff * 3 / 2
	}
}

// release deletes the lock item, but only while this holder still owns it.
// An expired lock may have been taken over by another worker; deleting
// unconditionally would steal theirs.
func (rl *RunLock) release(ctx context.Context, resource, lockID string) error {
	_, err := rl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(rl.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "RUNLOCK#" + resource},
			"SK": &types.AttributeValueMemberS{Value: "RUNLOCK"},
		},
		ConditionExpression: aws.String("LockID = :lockId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			rl.logger.Warn("run lock expired and was taken over before release",
				zap.String("resource", resource))
			return nil
		}
		return fmt.Errorf("failed to release lock for %s: %w", resource, err)
	}

	rl.logger.Debug("run lock released", zap.String("resource", resource))
	return nil
}

// Lock is a held run lock
type Lock struct {
	manager   *RunLock
	resource  string
	lockID    string
	owner     string
	expiresAt time.Time
}

// Release frees the lock for the next worker
func (l *Lock) Release(ctx context.Context) error {
	return l.manager.release(ctx, l.resource, l.lockID)
}

// IsExpired reports whether the lock's lease has run out
func (l *Lock) IsExpired() bool {
	return time.Now().After(l.expiresAt)
}
