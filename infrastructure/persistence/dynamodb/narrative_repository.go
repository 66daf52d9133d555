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

// narrativeComponentRecord is the storage shape of one component
type narrativeComponentRecord struct {
	Name              string   `dynamodbav:"Name"`
	Text              string   `dynamodbav:"Text"`
	SourceActivityIDs []string `dynamodbav:"SourceActivityIDs"`
	Confidence        float64  `dynamodbav:"Confidence"`
}

// narrativeRecord is the storage shape of a narrative
type narrativeRecord struct {
	PK            string                     `dynamodbav:"PK"`
	SK            string                     `dynamodbav:"SK"`
	EntityType    string                     `dynamodbav:"EntityType"`
	ID            string                     `dynamodbav:"ID"`
	UserID        string                     `dynamodbav:"UserID"`
	ClusterID     string                     `dynamodbav:"ClusterID"`
	Framework     string                     `dynamodbav:"Framework"`
	Components    []narrativeComponentRecord `dynamodbav:"Components"`
	Confidence    float64                    `dynamodbav:"Confidence"`
	Participation map[string]int             `dynamodbav:"Participation"`
	Suggestions   []string                   `dynamodbav:"Suggestions"`
	Score         int                        `dynamodbav:"Score"`
	Passed        bool                       `dynamodbav:"Passed"`
	CreatedAt     string                     `dynamodbav:"CreatedAt"`
}

// NarrativeRepository implements ports.NarrativeRepository on DynamoDB
type NarrativeRepository struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewNarrativeRepository creates a DynamoDB-backed narrative repository
func NewNarrativeRepository(client *awsdynamodb.Client, tableName string, logger *zap.Logger) ports.NarrativeRepository {
	return &NarrativeRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Save persists a narrative
func (r *NarrativeRepository) Save(ctx context.Context, narrative *entities.Narrative) error {
	components := make([]narrativeComponentRecord, 0, len(narrative.Components()))
	for _, c := range narrative.Components() {
		components = append(components, narrativeComponentRecord{
			Name:              c.Name,
			Text:              c.Text,
			SourceActivityIDs: c.SourceActivityIDs,
			Confidence:        c.Confidence,
		})
	}
	participation := make(map[string]int)
	for level, count := range narrative.ParticipationSummary() {
		participation[level.String()] = count
	}

	record := narrativeRecord{
		PK:            userKeyPrefix + narrative.UserID(),
		SK:            narrativeKeyPrefix + narrative.ID(),
		EntityType:    "Narrative",
		ID:            narrative.ID(),
		UserID:        narrative.UserID(),
		ClusterID:     narrative.ClusterID(),
		Framework:     narrative.Framework(),
		Components:    components,
		Confidence:    narrative.Confidence(),
		Participation: participation,
		Suggestions:   narrative.Suggestions(),
		Score:         narrative.Score(),
		Passed:        narrative.Passed(),
		CreatedAt:     narrative.CreatedAt().UTC().Format(time.RFC3339Nano),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal narrative", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("save narrative", err)
	}
	return nil
}

// GetByID retrieves a narrative by its ID
func (r *NarrativeRepository) GetByID(ctx context.Context, userID, id string) (*entities.Narrative, error) {
	out, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userKeyPrefix + userID},
			"SK": &types.AttributeValueMemberS{Value: narrativeKeyPrefix + id},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get narrative", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("narrative " + id)
	}
	return unmarshalNarrative(out.Item)
}

// GetByClusterID retrieves the narratives generated for a cluster
func (r *NarrativeRepository) GetByClusterID(ctx context.Context, userID, clusterID string) ([]*entities.Narrative, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userKeyPrefix + userID)).
		And(expression.Key("SK").BeginsWith(narrativeKeyPrefix))
	filter := expression.Name("ClusterID").Equal(expression.Value(clusterID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build narrative query", err)
	}

	var narratives []*entities.Narrative
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
			return nil, pkgerrors.NewDatabaseError("query narratives", err)
		}
		for _, item := range out.Items {
			narrative, err := unmarshalNarrative(item)
			if err != nil {
				r.logger.Warn("skipping malformed narrative item", zap.Error(err))
				continue
			}
			narratives = append(narratives, narrative)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return narratives, nil
}

// Delete removes a narrative
func (r *NarrativeRepository) Delete(ctx context.Context, userID, id string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userKeyPrefix + userID},
			"SK": &types.AttributeValueMemberS{Value: narrativeKeyPrefix + id},
		},
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete narrative", err)
	}
	return nil
}

func unmarshalNarrative(item map[string]types.AttributeValue) (*entities.Narrative, error) {
	var record narrativeRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal narrative", err)
	}

	components := make([]entities.NarrativeComponent, 0, len(record.Components))
	for _, c := range record.Components {
		components = append(components, entities.NarrativeComponent{
			Name:              c.Name,
			Text:              c.Text,
			SourceActivityIDs: c.SourceActivityIDs,
			Confidence:        c.Confidence,
		})
	}
	summary := entities.ParticipationSummary{}
	for level, count := range record.Participation {
		summary[valueobjects.ParticipationLevel(level)] = count
	}

	createdAt, err := time.Parse(time.RFC3339Nano, record.CreatedAt)
	if err != nil {
		createdAt = time.Time{}
	}

	return entities.ReconstructNarrative(
		record.ID,
		record.UserID,
		record.ClusterID,
		record.Framework,
		components,
		record.Confidence,
		summary,
		record.Suggestions,
		record.Score,
		record.Passed,
		createdAt,
	)
}
