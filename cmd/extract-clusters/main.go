// Package main implements the Lambda worker that re-runs clustering after
// the sync layer finishes importing a user's activities.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"careerlens/application/commands"
	"careerlens/infrastructure/config"
	"careerlens/infrastructure/di"
	"careerlens/pkg/observability"
)

// lockDuration bounds one clustering run; a crashed worker frees the
// user's lock after this long
const (
	lockDuration = 5 * time.Minute
	lockTimeout  = 10 * time.Second
)

var (
	container *di.Container
	tracer    *observability.Tracer
)

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}

	tracer = observability.NewTracer("careerlens-extract-clusters")
	container.Logger.Info("extract-clusters worker initialized")
}

// ExtractRequest represents the input for a clustering run
type ExtractRequest struct {
	UserID  string     `json:"user_id"`
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
	Replace bool       `json:"replace"`
}

// HandleExtraction runs one clustering pass for a user. A distributed
// lock keyed on the user serializes concurrent runs; losing the lock
// means another worker is already clustering this user.
func HandleExtraction(ctx context.Context, request ExtractRequest) error {
	if request.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	resource := fmt.Sprintf("extract-clusters:%s", request.UserID)
	lock, err := container.Lock.TryAcquire(ctx, resource, "extract-clusters-worker", lockDuration, lockTimeout)
	if err != nil {
		container.Logger.Info("skipping extraction, user already being clustered",
			zap.String("userId", request.UserID),
			zap.Error(err))
		return nil
	}
	defer func() {
		if lock.IsExpired() {
			container.Logger.Warn("extraction run outlived its lock lease",
				zap.String("userId", request.UserID))
		}
		if err := lock.Release(ctx); err != nil {
			container.Logger.Warn("failed to release extraction lock",
				zap.String("userId", request.UserID),
				zap.Error(err))
		}
	}()

	cmd := commands.ExtractClustersCommand{
		UserID:  request.UserID,
		Replace: request.Replace,
	}
	if request.From != nil {
		cmd.From = *request.From
	}
	if request.To != nil {
		cmd.To = *request.To
	}

	err = tracer.TraceFunction(ctx, "ExtractClusters", func(ctx context.Context) error {
		tracer.AddAnnotation(ctx, "userId", request.UserID)
		return container.CommandBus.Send(ctx, cmd)
	})
	if err != nil {
		return fmt.Errorf("extraction failed for user %s: %w", request.UserID, err)
	}

	container.Logger.Info("extraction run completed",
		zap.String("userId", request.UserID))
	return nil
}

// handler is the Lambda handler for EventBridge and direct invocations
func handler(ctx context.Context, event json.RawMessage) error {
	// EventBridge rule invocation from the sync layer
	var cloudWatchEvent awsevents.CloudWatchEvent
	if err := json.Unmarshal(event, &cloudWatchEvent); err == nil && cloudWatchEvent.DetailType != "" {
		if cloudWatchEvent.DetailType == "sync.activities_updated" {
			var detail struct {
				UserID string `json:"user_id"`
			}
			if err := json.Unmarshal(cloudWatchEvent.Detail, &detail); err != nil {
				return fmt.Errorf("failed to parse sync event: %w", err)
			}
			return HandleExtraction(ctx, ExtractRequest{
				UserID:  detail.UserID,
				Replace: true,
			})
		}

		container.Logger.Debug("ignoring event",
			zap.String("detailType", cloudWatchEvent.DetailType))
		return nil
	}

	// Direct invocation
	var request ExtractRequest
	if err := json.Unmarshal(event, &request); err == nil && request.UserID != "" {
		return HandleExtraction(ctx, request)
	}

	return fmt.Errorf("unable to parse event")
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(handler)
		return
	}

	// Local testing mode
	log.Println("Running in local test mode")

	testRequest := ExtractRequest{
		UserID:  "test-user-456",
		Replace: true,
	}

	// Outside Lambda there is no facade segment, so open one
	ctx, seg := tracer.StartSegment(context.Background(), "LocalRun")
	err := HandleExtraction(ctx, testRequest)
	seg.Close(err)
	if err != nil {
		log.Fatalf("Test extraction failed: %v", err)
	}
}
