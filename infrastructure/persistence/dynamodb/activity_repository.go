// Package dynamodb implements the persistence ports on a single DynamoDB
// table. Items are keyed PK=USER#<userID>, SK=<ENTITY>#<id>.
package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"careerlens/application/ports"
	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
	pkgerrors "careerlens/pkg/errors"
)

const (
	userKeyPrefix      = "USER#"
	activityKeyPrefix  = "ACTIVITY#"
	clusterKeyPrefix   = "CLUSTER#"
	narrativeKeyPrefix = "NARRATIVE#"
	personaKey         = "PERSONA"

	batchGetLimit = 100
)

// activityRecord is the storage shape of an activity
type activityRecord struct {
	PK          string                 `dynamodbav:"PK"`
	SK          string                 `dynamodbav:"SK"`
	EntityType  string                 `dynamodbav:"EntityType"`
	ID          string                 `dynamodbav:"ID"`
	UserID      string                 `dynamodbav:"UserID"`
	Source      string                 `dynamodbav:"Source"`
	SourceID    string                 `dynamodbav:"SourceID"`
	SourceURL   string                 `dynamodbav:"SourceURL,omitempty"`
	Title       string                 `dynamodbav:"Title"`
	Description string                 `dynamodbav:"Description,omitempty"`
	Timestamp   string                 `dynamodbav:"Timestamp"`
	RawData     map[string]interface{} `dynamodbav:"RawData,omitempty"`
}

// ActivityRepository implements ports.ActivityRepository on DynamoDB
type ActivityRepository struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewActivityRepository creates a DynamoDB-backed activity repository
func NewActivityRepository(client *awsdynamodb.Client, tableName string, logger *zap.Logger) ports.ActivityRepository {
	return &ActivityRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Save persists an activity
func (r *ActivityRepository) Save(ctx context.Context, activity *entities.Activity) error {
	record := activityRecord{
		PK:          userKeyPrefix + activity.UserID(),
		SK:          activityKeyPrefix + activity.ID(),
		EntityType:  "Activity",
		ID:          activity.ID(),
		UserID:      activity.UserID(),
		Source:      activity.Source().String(),
		SourceID:    activity.SourceID(),
		SourceURL:   activity.SourceURL(),
		Title:       activity.Title(),
		Description: activity.Description(),
		Timestamp:   activity.Timestamp().UTC().Format(time.RFC3339Nano),
		RawData:     activity.RawData(),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal activity", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("save activity", err)
	}
	return nil
}

// GetByID retrieves one activity
func (r *ActivityRepository) GetByID(ctx context.Context, userID, id string) (*entities.Activity, error) {
	out, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       activityKey(userID, id),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get activity", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("activity " + id)
	}
	return unmarshalActivity(out.Item)
}

// FindActivitiesByIDs retrieves the activities that still exist among the
// given ids, in batches of up to 100 keys per request
func (r *ActivityRepository) FindActivitiesByIDs(ctx context.Context, userID string, ids []string) ([]*entities.Activity, error) {
	activities := make([]*entities.Activity, 0, len(ids))

	for start := 0; start < len(ids); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, activityKey(userID, id))
		}

		request := map[string]types.KeysAndAttributes{
			r.tableName: {Keys: keys},
		}
		for len(request) > 0 {
			out, err := r.client.BatchGetItem(ctx, &awsdynamodb.BatchGetItemInput{
				RequestItems: request,
			})
			if err != nil {
				return nil, pkgerrors.NewDatabaseError("batch get activities", err)
			}
			for _, item := range out.Responses[r.tableName] {
				activity, err := unmarshalActivity(item)
				if err != nil {
					r.logger.Warn("skipping malformed activity item", zap.Error(err))
					continue
				}
				activities = append(activities, activity)
			}
			request = out.UnprocessedKeys
		}
	}

	return activities, nil
}

// GetByUserID retrieves all activities for a user
func (r *ActivityRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.Activity, error) {
	return r.GetByUserIDInWindow(ctx, userID, time.Time{}, time.Time{})
}

// GetByUserIDInWindow retrieves a user's activities inside a time range
func (r *ActivityRepository) GetByUserIDInWindow(ctx context.Context, userID string, from, to time.Time) ([]*entities.Activity, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userKeyPrefix + userID)).
		And(expression.Key("SK").BeginsWith(activityKeyPrefix))

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if !from.IsZero() || !to.IsZero() {
		var filter expression.ConditionBuilder
		switch {
		case !from.IsZero() && !to.IsZero():
			filter = expression.Name("Timestamp").Between(
				expression.Value(from.UTC().Format(time.RFC3339Nano)),
				expression.Value(to.UTC().Format(time.RFC3339Nano)))
		case !from.IsZero():
			filter = expression.Name("Timestamp").GreaterThanEqual(
				expression.Value(from.UTC().Format(time.RFC3339Nano)))
		default:
			filter = expression.Name("Timestamp").LessThanEqual(
				expression.Value(to.UTC().Format(time.RFC3339Nano)))
		}
		builder = builder.WithFilter(filter)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build activity query", err)
	}

	var activities []*entities.Activity
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query activities", err)
		}
		for _, item := range out.Items {
			activity, err := unmarshalActivity(item)
			if err != nil {
				r.logger.Warn("skipping malformed activity item", zap.Error(err))
				continue
			}
			activities = append(activities, activity)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}

	return activities, nil
}

// Delete removes an activity
func (r *ActivityRepository) Delete(ctx context.Context, userID, id string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       activityKey(userID, id),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete activity", err)
	}
	return nil
}

func activityKey(userID, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userKeyPrefix + userID},
		"SK": &types.AttributeValueMemberS{Value: activityKeyPrefix + id},
	}
}

func unmarshalActivity(item map[string]types.AttributeValue) (*entities.Activity, error) {
	var record activityRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal activity", err)
	}
	timestamp, err := time.Parse(time.RFC3339Nano, record.Timestamp)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("parse activity timestamp", err)
	}
	return entities.ReconstructActivity(
		record.ID,
		record.UserID,
		valueobjects.ToolType(record.Source),
		record.SourceID,
		record.SourceURL,
		record.Title,
		record.Description,
		timestamp,
		record.RawData,
	)
}
