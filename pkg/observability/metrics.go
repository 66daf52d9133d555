package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// flushInterval bounds how long a metric sits in the buffer before it is
// shipped to CloudWatch. PutMetricData accepts at most 20 datums per call.
const (
	flushInterval    = 30 * time.Second
	putMetricDataMax = 20
)

// Metrics buffers application metrics and flushes them to CloudWatch in
// the background. All record methods are safe for concurrent use.
type Metrics struct {
	namespace string
	client    *awscloudwatch.Client

	mu     sync.Mutex
	buffer []types.MetricDatum

	done chan struct{}
	once sync.Once
}

// NewMetrics creates a metrics collector publishing under the given namespace
func NewMetrics(namespace string, client *awscloudwatch.Client) *Metrics {
	m := &Metrics{
		namespace: namespace,
		client:    client,
		done:      make(chan struct{}),
	}
	go m.flushLoop()
	return m
}

// RecordQueryDuration records one query execution
func (m *Metrics) RecordQueryDuration(queryType string, duration time.Duration, success bool) {
	m.record("QueryDuration", float64(duration.Milliseconds()), types.StandardUnitMilliseconds,
		[]types.Dimension{
			{Name: aws.String("QueryType"), Value: aws.String(queryType)},
			{Name: aws.String("Success"), Value: aws.String(boolLabel(success))},
		})
}

// RecordCommandDuration records one command execution
func (m *Metrics) RecordCommandDuration(commandType string, duration time.Duration, success bool) {
	m.record("CommandDuration", float64(duration.Milliseconds()), types.StandardUnitMilliseconds,
		[]types.Dimension{
			{Name: aws.String("CommandType"), Value: aws.String(commandType)},
			{Name: aws.String("Success"), Value: aws.String(boolLabel(success))},
		})
}

// RecordCount records a named counter increment
func (m *Metrics) RecordCount(name string, value float64) {
	m.record(name, value, types.StandardUnitCount, nil)
}

func (m *Metrics) record(name string, value float64, unit types.StandardUnit, dims []types.Dimension) {
	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dims,
	}

	m.mu.Lock()
	m.buffer = append(m.buffer, datum)
	full := len(m.buffer) >= putMetricDataMax
	m.mu.Unlock()

	if full {
		m.Flush(context.Background())
	}
}

// Flush ships the buffered metrics to CloudWatch
func (m *Metrics) Flush(ctx context.Context) {
	m.mu.Lock()
	batch := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	for start := 0; start < len(batch); start += putMetricDataMax {
		end := start + putMetricDataMax
		if end > len(batch) {
			end = len(batch)
		}
		_, _ = m.client.PutMetricData(ctx, &awscloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch[start:end],
		})
	}
}

// Close stops the background flush loop and flushes remaining metrics
func (m *Metrics) Close() {
	m.once.Do(func() {
		close(m.done)
	})
	m.Flush(context.Background())
}

func (m *Metrics) flushLoop() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Flush(context.Background())
		case <-m.done:
			return
		}
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
