package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"careerlens/application/ports"
	"careerlens/domain/core/valueobjects"
	pkgerrors "careerlens/pkg/errors"
)

// personaIdentityRecord is the storage shape of one tool identity
type personaIdentityRecord struct {
	AccountID   string `dynamodbav:"AccountID,omitempty"`
	Login       string `dynamodbav:"Login,omitempty"`
	DisplayName string `dynamodbav:"DisplayName,omitempty"`
}

// personaRecord is the storage shape of a persona. Each user has exactly
// one, kept under a fixed sort key.
type personaRecord struct {
	PK          string                           `dynamodbav:"PK"`
	SK          string                           `dynamodbav:"SK"`
	EntityType  string                           `dynamodbav:"EntityType"`
	UserID      string                           `dynamodbav:"UserID"`
	DisplayName string                           `dynamodbav:"DisplayName"`
	Emails      []string                         `dynamodbav:"Emails"`
	Identities  map[string]personaIdentityRecord `dynamodbav:"Identities"`
}

// PersonaRepository implements ports.PersonaRepository on DynamoDB
type PersonaRepository struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewPersonaRepository creates a DynamoDB-backed persona repository
func NewPersonaRepository(client *awsdynamodb.Client, tableName string, logger *zap.Logger) ports.PersonaRepository {
	return &PersonaRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// GetByUserID retrieves the persona for a user
func (r *PersonaRepository) GetByUserID(ctx context.Context, userID string) (valueobjects.CareerPersona, error) {
	out, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       personaItemKey(userID),
	})
	if err != nil {
		return valueobjects.CareerPersona{}, pkgerrors.NewDatabaseError("get persona", err)
	}
	if out.Item == nil {
		return valueobjects.CareerPersona{}, pkgerrors.NewNotFoundError("persona for user " + userID)
	}

	var record personaRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return valueobjects.CareerPersona{}, pkgerrors.NewDatabaseError("unmarshal persona", err)
	}

	identities := make(map[valueobjects.ToolType]valueobjects.ToolIdentity, len(record.Identities))
	for tool, identity := range record.Identities {
		identities[valueobjects.ToolType(tool)] = valueobjects.ToolIdentity{
			AccountID:   identity.AccountID,
			Login:       identity.Login,
			DisplayName: identity.DisplayName,
		}
	}

	return valueobjects.CareerPersona{
		DisplayName: record.DisplayName,
		Emails:      record.Emails,
		Identities:  identities,
	}, nil
}

// Save persists a persona
func (r *PersonaRepository) Save(ctx context.Context, userID string, persona valueobjects.CareerPersona) error {
	identities := make(map[string]personaIdentityRecord, len(persona.Identities))
	for tool, identity := range persona.Identities {
		identities[tool.String()] = personaIdentityRecord{
			AccountID:   identity.AccountID,
			Login:       identity.Login,
			DisplayName: identity.DisplayName,
		}
	}

	record := personaRecord{
		PK:          userKeyPrefix + userID,
		SK:          personaKey,
		EntityType:  "Persona",
		UserID:      userID,
		DisplayName: persona.DisplayName,
		Emails:      persona.Emails,
		Identities:  identities,
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal persona", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("save persona", err)
	}
	return nil
}

func personaItemKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userKeyPrefix + userID},
		"SK": &types.AttributeValueMemberS{Value: personaKey},
	}
}
