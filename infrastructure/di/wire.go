//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"careerlens/application/commands/bus"
	"careerlens/application/ports"
	querybus "careerlens/application/queries/bus"
	"careerlens/infrastructure/config"
	"careerlens/infrastructure/persistence/dynamodb"
	"careerlens/interfaces/http/rest"
	"careerlens/pkg/auth"
	"careerlens/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	ActivityRepo  ports.ActivityRepository
	ClusterRepo   ports.ClusterRepository
	NarrativeRepo ports.NarrativeRepository
	PersonaRepo   ports.PersonaRepository
	EventBus      ports.EventBus
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	Router        *rest.Router
	Cache         ports.Cache
	Metrics       *observability.Metrics
	RateLimiter   *auth.DistributedRateLimiter
	Lock          *dynamodb.RunLock
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideActivityRepository,
	ProvideClusterRepository,
	ProvideNarrativeRepository,
	ProvidePersonaRepository,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvidePipelineConfig,
	ProvidePatternRegistry,
	ProvideRefExtractor,
	ProvideClusterExtractor,
	ProvideHydrator,
	ProvideIdentityMatcher,
	ProvideNarrativeExtractor,
	ProvideExtractClustersHandler,
	ProvideGenerateNarrativeHandler,
	ProvideGetClusterHandler,
	ProvideListClustersHandler,
	ProvideGetNarrativeHandler,
	ProvideGetParticipationHandler,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideMetrics,
	ProvideExtractRateLimiter,
	ProvideRunLock,
	ProvideInMemoryCache,
	ProvideClusterHandler,
	ProvideNarrativeHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
