package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// PutMetricDataAPI is the CloudWatch call the emitter needs
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchEmitter publishes measurements as CloudWatch custom metrics. It is
// used in Lambda where nothing scrapes /metrics.
type CloudWatchEmitter struct {
	client    PutMetricDataAPI
	namespace string
	logger    *zap.Logger
	now       func() time.Time
}

func NewCloudWatchEmitter(client PutMetricDataAPI, namespace string, logger *zap.Logger) *CloudWatchEmitter {
	return &CloudWatchEmitter{client: client, namespace: namespace, logger: logger, now: time.Now}
}

func (e *CloudWatchEmitter) ObserveStoreOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	dims := []types.Dimension{
		{Name: aws.String("Operation"), Value: aws.String(operation)},
		{Name: aws.String("Status"), Value: aws.String(statusLabel(err))},
	}
	ts := aws.Time(e.now())
	e.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("StoreOperationLatency"),
			Dimensions: dims,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  ts,
		},
		{
			MetricName: aws.String("StoreOperationCount"),
			Dimensions: dims,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  ts,
		},
	})
}

func (e *CloudWatchEmitter) AddRelationChanges(ctx context.Context, change string, n int) {
	if n <= 0 {
		return
	}
	e.put(ctx, []types.MetricDatum{{
		MetricName: aws.String("RelationChanges"),
		Dimensions: []types.Dimension{{Name: aws.String("Change"), Value: aws.String(change)}},
		Value:      aws.Float64(float64(n)),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(e.now()),
	}})
}

// put never fails the caller; metric loss is only logged.
func (e *CloudWatchEmitter) put(ctx context.Context, data []types.MetricDatum) {
	if e.client == nil {
		return
	}
	_, err := e.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(e.namespace),
		MetricData: data,
	})
	if err != nil {
		e.logger.Warn("Failed to send metrics", zap.String("namespace", e.namespace), zap.Error(err))
	}
}
