package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"careerlens/application/commands"
	"careerlens/application/commands/bus"
	"careerlens/application/ports"
	"careerlens/application/queries"
	querybus "careerlens/application/queries/bus"
	domaincfg "careerlens/domain/config"
	"careerlens/domain/events"
	"careerlens/domain/services/clustering"
	"careerlens/domain/services/extraction"
	"careerlens/domain/services/identity"
	"careerlens/domain/services/narrative"
	"careerlens/infrastructure/config"
	"careerlens/infrastructure/messaging/eventbridge"
	"careerlens/infrastructure/persistence/dynamodb"
	"careerlens/interfaces/http/rest"
	"careerlens/interfaces/http/rest/handlers"
	"careerlens/pkg/auth"
	"careerlens/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideActivityRepository creates an activity repository
func ProvideActivityRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ActivityRepository {
	return dynamodb.NewActivityRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideClusterRepository creates a cluster repository
func ProvideClusterRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ClusterRepository {
	return dynamodb.NewClusterRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideNarrativeRepository creates a narrative repository
func ProvideNarrativeRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.NarrativeRepository {
	return dynamodb.NewNarrativeRepository(client, cfg.DynamoDBTable, logger)
}

// ProvidePersonaRepository creates a persona repository
func ProvidePersonaRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.PersonaRepository {
	return dynamodb.NewPersonaRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventBus creates an event bus
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideEventPublisher creates an event publisher (adapter for EventBus)
func ProvideEventPublisher(eventBus ports.EventBus) ports.EventPublisher {
	return &eventPublisherAdapter{eventBus: eventBus}
}

// eventPublisherAdapter adapts EventBus to the EventPublisher interface
type eventPublisherAdapter struct {
	eventBus ports.EventBus
}

func (a *eventPublisherAdapter) Publish(ctx context.Context, event events.DomainEvent) error {
	return a.eventBus.Publish(ctx, event)
}

func (a *eventPublisherAdapter) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	return a.eventBus.PublishBatch(ctx, batch)
}

// ProvidePipelineConfig creates the pipeline tuning parameters, applying
// any env-level threshold overrides on top of the environment defaults
func ProvidePipelineConfig(cfg *config.Config) *domaincfg.PipelineConfig {
	pc := domaincfg.LoadPipelineConfig(cfg.Environment)
	if cfg.MinClusterSize > 0 {
		pc.MinClusterSize = cfg.MinClusterSize
	}
	if cfg.MinActivities > 0 {
		pc.MinActivities = cfg.MinActivities
	}
	if cfg.MinToolTypes > 0 {
		pc.MinToolTypes = cfg.MinToolTypes
	}
	if cfg.MaxObserverRatio > 0 {
		pc.MaxObserverRatio = cfg.MaxObserverRatio
	}
	_ = pc.Validate()
	return pc
}

// ProvidePatternRegistry creates the reference pattern registry
func ProvidePatternRegistry() *extraction.Registry {
	return extraction.DefaultRegistry()
}

// ProvideRefExtractor creates the reference extractor
func ProvideRefExtractor(registry *extraction.Registry, logger *zap.Logger) *extraction.Extractor {
	return extraction.NewExtractor(registry, logger)
}

// ProvideClusterExtractor creates the clustering service
func ProvideClusterExtractor(refs *extraction.Extractor, cfg *domaincfg.PipelineConfig, logger *zap.Logger) *clustering.Extractor {
	return clustering.NewExtractor(refs, cfg, logger)
}

// ProvideHydrator creates the cluster hydrator
func ProvideHydrator(
	activityRepo ports.ActivityRepository,
	refs *extraction.Extractor,
	cfg *domaincfg.PipelineConfig,
	logger *zap.Logger,
) *clustering.Hydrator {
	return clustering.NewHydrator(activityRepo, refs, cfg, logger)
}

// ProvideIdentityMatcher creates the identity matcher with default signals
func ProvideIdentityMatcher(logger *zap.Logger) *identity.Matcher {
	return identity.NewMatcher(nil, logger)
}

// ProvideNarrativeExtractor creates the narrative extractor
func ProvideNarrativeExtractor(
	matcher *identity.Matcher,
	cfg *domaincfg.PipelineConfig,
	logger *zap.Logger,
) *narrative.Extractor {
	return narrative.NewExtractor(matcher, cfg, logger)
}

// ProvideExtractClustersHandler creates the clustering command handler
func ProvideExtractClustersHandler(
	activityRepo ports.ActivityRepository,
	clusterRepo ports.ClusterRepository,
	extractor *clustering.Extractor,
	eventPublisher ports.EventPublisher,
	logger *zap.Logger,
) *commands.ExtractClustersHandler {
	return commands.NewExtractClustersHandler(activityRepo, clusterRepo, extractor, eventPublisher, logger)
}

// ProvideGenerateNarrativeHandler creates the narrative command handler
func ProvideGenerateNarrativeHandler(
	clusterRepo ports.ClusterRepository,
	personaRepo ports.PersonaRepository,
	narrativeRepo ports.NarrativeRepository,
	hydrator *clustering.Hydrator,
	extractor *narrative.Extractor,
	eventPublisher ports.EventPublisher,
	logger *zap.Logger,
) *commands.GenerateNarrativeHandler {
	return commands.NewGenerateNarrativeHandler(
		clusterRepo, personaRepo, narrativeRepo, hydrator, extractor, eventPublisher, logger)
}

// ProvideGetClusterHandler creates the get cluster query handler
func ProvideGetClusterHandler(clusterRepo ports.ClusterRepository) *queries.GetClusterHandler {
	return queries.NewGetClusterHandler(clusterRepo)
}

// ProvideListClustersHandler creates the list clusters query handler
func ProvideListClustersHandler(clusterRepo ports.ClusterRepository) *queries.ListClustersHandler {
	return queries.NewListClustersHandler(clusterRepo)
}

// ProvideGetNarrativeHandler creates the get narrative query handler
func ProvideGetNarrativeHandler(narrativeRepo ports.NarrativeRepository) *queries.GetNarrativeHandler {
	return queries.NewGetNarrativeHandler(narrativeRepo)
}

// ProvideGetParticipationHandler creates the participation query handler
func ProvideGetParticipationHandler(
	clusterRepo ports.ClusterRepository,
	personaRepo ports.PersonaRepository,
	hydrator *clustering.Hydrator,
	matcher *identity.Matcher,
) *queries.GetParticipationHandler {
	return queries.NewGetParticipationHandler(clusterRepo, personaRepo, hydrator, matcher)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers. Each
// handler records its duration and the pipeline outcome counts.
func ProvideCommandBus(
	extractHandler *commands.ExtractClustersHandler,
	generateHandler *commands.GenerateNarrativeHandler,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()

	err := commandBus.Register(commands.ExtractClustersCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			extractCmd, ok := cmd.(commands.ExtractClustersCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			start := time.Now()
			result, err := extractHandler.Handle(ctx, extractCmd)
			metrics.RecordCommandDuration("ExtractClusters", time.Since(start), err == nil)
			if err == nil {
				metrics.RecordCount("ClustersExtracted", float64(len(result.Clusters)))
			}
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	err = commandBus.Register(commands.GenerateNarrativeCommand{}, &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			generateCmd, ok := cmd.(commands.GenerateNarrativeCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			start := time.Now()
			outcome, err := generateHandler.Handle(ctx, generateCmd)
			metrics.RecordCommandDuration("GenerateNarrative", time.Since(start), err == nil)
			if err == nil {
				if outcome.Rejected() {
					metrics.RecordCount("NarrativesRejected", 1)
				} else {
					metrics.RecordCount("NarrativesGenerated", 1)
				}
			}
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	return commandBus, nil
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	getCluster *queries.GetClusterHandler,
	listClusters *queries.ListClustersHandler,
	getNarrative *queries.GetNarrativeHandler,
	getParticipation *queries.GetParticipationHandler,
	cache ports.Cache,
	metrics *observability.Metrics,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	record := querybus.MetricsMiddleware(metrics)
	cached := querybus.CachingMiddleware(cache, 300)

	err := queryBus.Register(queries.GetClusterQuery{}, record(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetClusterQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getCluster.Handle(ctx, getQuery)
		},
	}))
	if err != nil {
		return nil, err
	}

	err = queryBus.Register(queries.ListClustersQuery{}, record(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListClustersQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listClusters.Handle(ctx, listQuery)
		},
	}))
	if err != nil {
		return nil, err
	}

	// Narratives are immutable once generated, so their reads are cached
	err = queryBus.Register(queries.GetNarrativeQuery{}, record(cached(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetNarrativeQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getNarrative.Handle(ctx, getQuery)
		},
	})))
	if err != nil {
		return nil, err
	}

	err = queryBus.Register(queries.GetParticipationQuery{}, record(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetParticipationQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getParticipation.Handle(ctx, getQuery)
		},
	}))
	if err != nil {
		return nil, err
	}

	return queryBus, nil
}

// ProvideMetrics creates metrics instance
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config) *observability.Metrics {
	namespace := fmt.Sprintf("CareerLens/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client)
}

// ProvideExtractRateLimiter creates a distributed rate limiter for
// extraction runs
func ProvideExtractRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.DistributedRateLimiter {
	return auth.NewDistributedRateLimiter(
		client,
		cfg.DynamoDBTable,
		10,
		1*time.Minute,
		"EXTRACT",
	)
}

// ProvideRunLock creates the lock manager serializing pipeline runs
func ProvideRunLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.RunLock {
	return dynamodb.NewRunLock(client, cfg.DynamoDBTable, logger)
}

// ProvideInMemoryCache creates a simple in-memory cache
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}

// ProvideClusterHandler creates the cluster HTTP handler
func ProvideClusterHandler(
	extractHandler *commands.ExtractClustersHandler,
	getCluster *queries.GetClusterHandler,
	listClusters *queries.ListClustersHandler,
	getParticipation *queries.GetParticipationHandler,
	rateLimiter *auth.DistributedRateLimiter,
	logger *zap.Logger,
) *handlers.ClusterHandler {
	return handlers.NewClusterHandler(
		extractHandler, getCluster, listClusters, getParticipation, rateLimiter, logger)
}

// ProvideNarrativeHandler creates the narrative HTTP handler
func ProvideNarrativeHandler(
	generateHandler *commands.GenerateNarrativeHandler,
	getNarrative *queries.GetNarrativeHandler,
	logger *zap.Logger,
) *handlers.NarrativeHandler {
	return handlers.NewNarrativeHandler(generateHandler, getNarrative, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	clusterHandler *handlers.ClusterHandler,
	narrativeHandler *handlers.NarrativeHandler,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(clusterHandler, narrativeHandler, logger)
}
