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
	"careerlens/domain/core/aggregates"
	"careerlens/domain/core/valueobjects"
	pkgerrors "careerlens/pkg/errors"
)

const batchWriteLimit = 25

// clusterRecord is the storage shape of a cluster
type clusterRecord struct {
	PK            string   `dynamodbav:"PK"`
	SK            string   `dynamodbav:"SK"`
	EntityType    string   `dynamodbav:"EntityType"`
	ID            string   `dynamodbav:"ID"`
	UserID        string   `dynamodbav:"UserID"`
	ActivityIDs   []string `dynamodbav:"ActivityIDs"`
	SharedRefs    []string `dynamodbav:"SharedRefs"`
	ActivityCount int      `dynamodbav:"ActivityCount"`
	ToolTypes     []string `dynamodbav:"ToolTypes"`
	RefCount      int      `dynamodbav:"RefCount"`
	Earliest      string   `dynamodbav:"Earliest,omitempty"`
	Latest        string   `dynamodbav:"Latest,omitempty"`
	CreatedAt     string   `dynamodbav:"CreatedAt"`
}

// ClusterRepository implements ports.ClusterRepository on DynamoDB
type ClusterRepository struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewClusterRepository creates a DynamoDB-backed cluster repository
func NewClusterRepository(client *awsdynamodb.Client, tableName string, logger *zap.Logger) ports.ClusterRepository {
	return &ClusterRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Save persists a cluster
func (r *ClusterRepository) Save(ctx context.Context, userID string, cluster *aggregates.Cluster) error {
	item, err := marshalCluster(userID, cluster)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("save cluster", err)
	}
	return nil
}

// SaveBatch persists the full output of one clustering run, in batches of
// up to 25 writes per request
func (r *ClusterRepository) SaveBatch(ctx context.Context, userID string, clusters []*aggregates.Cluster) error {
	for start := 0; start < len(clusters); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(clusters) {
			end = len(clusters)
		}

		writes := make([]types.WriteRequest, 0, end-start)
		for _, cluster := range clusters[start:end] {
			item, err := marshalCluster(userID, cluster)
			if err != nil {
				return err
			}
			writes = append(writes, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		request := map[string][]types.WriteRequest{r.tableName: writes}
		for len(request) > 0 {
			out, err := r.client.BatchWriteItem(ctx, &awsdynamodb.BatchWriteItemInput{
				RequestItems: request,
			})
			if err != nil {
				return pkgerrors.NewDatabaseError("batch save clusters", err)
			}
			request = out.UnprocessedItems
		}
	}
	return nil
}

// GetByID retrieves a cluster by its ID
func (r *ClusterRepository) GetByID(ctx context.Context, userID string, id aggregates.ClusterID) (*aggregates.Cluster, error) {
	out, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       clusterKey(userID, id.String()),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get cluster", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("cluster " + id.String())
	}
	return unmarshalCluster(out.Item)
}

// GetByUserID retrieves all clusters for a user
func (r *ClusterRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregates.Cluster, error) {
	items, err := r.queryUserClusters(ctx, userID)
	if err != nil {
		return nil, err
	}

	clusters := make([]*aggregates.Cluster, 0, len(items))
	for _, item := range items {
		cluster, err := unmarshalCluster(item)
		if err != nil {
			r.logger.Warn("skipping malformed cluster item", zap.Error(err))
			continue
		}
		clusters = append(clusters, cluster)
	}
	return clusters, nil
}

// Delete removes a cluster
func (r *ClusterRepository) Delete(ctx context.Context, userID string, id aggregates.ClusterID) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       clusterKey(userID, id.String()),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete cluster", err)
	}
	return nil
}

// DeleteByUserID removes every cluster of a user
func (r *ClusterRepository) DeleteByUserID(ctx context.Context, userID string) error {
	items, err := r.queryUserClusters(ctx, userID)
	if err != nil {
		return err
	}

	for start := 0; start < len(items); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(items) {
			end = len(items)
		}

		writes := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			writes = append(writes, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": item["PK"],
						"SK": item["SK"],
					},
				},
			})
		}

		request := map[string][]types.WriteRequest{r.tableName: writes}
		for len(request) > 0 {
			out, err := r.client.BatchWriteItem(ctx, &awsdynamodb.BatchWriteItemInput{
				RequestItems: request,
			})
			if err != nil {
				return pkgerrors.NewDatabaseError("batch delete clusters", err)
			}
			request = out.UnprocessedItems
		}
	}
	return nil
}

func (r *ClusterRepository) queryUserClusters(ctx context.Context, userID string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userKeyPrefix + userID)).
		And(expression.Key("SK").BeginsWith(clusterKeyPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build cluster query", err)
	}

	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query clusters", err)
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return items, nil
}

func clusterKey(userID, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userKeyPrefix + userID},
		"SK": &types.AttributeValueMemberS{Value: clusterKeyPrefix + id},
	}
}

func marshalCluster(userID string, cluster *aggregates.Cluster) (map[string]types.AttributeValue, error) {
	metrics := cluster.Metrics()
	tools := make([]string, len(metrics.ToolTypes))
	for i, t := range metrics.ToolTypes {
		tools[i] = t.String()
	}

	record := clusterRecord{
		PK:            userKeyPrefix + userID,
		SK:            clusterKeyPrefix + cluster.ID().String(),
		EntityType:    "Cluster",
		ID:            cluster.ID().String(),
		UserID:        userID,
		ActivityIDs:   cluster.ActivityIDs(),
		SharedRefs:    cluster.SharedRefs(),
		ActivityCount: metrics.ActivityCount,
		ToolTypes:     tools,
		RefCount:      metrics.RefCount,
		CreatedAt:     cluster.CreatedAt().UTC().Format(time.RFC3339Nano),
	}
	if !metrics.Earliest.IsZero() {
		record.Earliest = metrics.Earliest.UTC().Format(time.RFC3339Nano)
	}
	if !metrics.Latest.IsZero() {
		record.Latest = metrics.Latest.UTC().Format(time.RFC3339Nano)
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("marshal cluster", err)
	}
	return item, nil
}

func unmarshalCluster(item map[string]types.AttributeValue) (*aggregates.Cluster, error) {
	var record clusterRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal cluster", err)
	}

	tools := make([]valueobjects.ToolType, len(record.ToolTypes))
	for i, t := range record.ToolTypes {
		tools[i] = valueobjects.ToolType(t)
	}

	metrics := aggregates.ClusterMetrics{
		ActivityCount: record.ActivityCount,
		ToolTypes:     tools,
		RefCount:      record.RefCount,
	}
	if record.Earliest != "" {
		if t, err := time.Parse(time.RFC3339Nano, record.Earliest); err == nil {
			metrics.Earliest = t
		}
	}
	if record.Latest != "" {
		if t, err := time.Parse(time.RFC3339Nano, record.Latest); err == nil {
			metrics.Latest = t
		}
	}

	createdAt, err := time.Parse(time.RFC3339Nano, record.CreatedAt)
	if err != nil {
		createdAt = time.Time{}
	}

	return aggregates.ReconstructCluster(
		record.ID,
		record.ActivityIDs,
		record.SharedRefs,
		metrics,
		createdAt,
	)
}
