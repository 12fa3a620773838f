package ddb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// InstrumentedClient decorates a DynamoDBClient with structured
// logging, prometheus metrics and a circuit breaker. Instrumenting at
// the client boundary covers every repository with one wrapper; when
// the breaker is open, calls fail fast with gobreaker.ErrOpenState,
// which repositories surface as an ordinary store failure.
type InstrumentedClient struct {
	inner   DynamoDBClient
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

var _ DynamoDBClient = (*InstrumentedClient)(nil)

// NewInstrumentedClient wraps the given client. Metrics register on the
// provided registerer; pass prometheus.DefaultRegisterer in production.
func NewInstrumentedClient(inner DynamoDBClient, logger *zap.Logger, reg prometheus.Registerer) *InstrumentedClient {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dynamodb_client_calls_total",
		Help: "DynamoDB client calls by operation and status.",
	}, []string{"operation", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dynamodb_client_call_duration_seconds",
		Help:    "DynamoDB client call latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(calls, latency)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "dynamodb",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Conditional-check rejections are business outcomes, not store
		// health signals; they must not trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || isConditionalCheckFailed(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &InstrumentedClient{
		inner:   inner,
		logger:  logger,
		breaker: breaker,
		calls:   calls,
		latency: latency,
	}
}

func (c *InstrumentedClient) do(op string, call func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	out, err := c.breaker.Execute(call)
	elapsed := time.Since(start)

	c.latency.WithLabelValues(op).Observe(elapsed.Seconds())
	status := "ok"
	if err != nil {
		status = "error"
		c.logger.Debug("store call errored",
			zap.String("operation", op),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	}
	c.calls.WithLabelValues(op, status).Inc()
	return out, err
}

func (c *InstrumentedClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	out, err := c.do("PutItem", func() (interface{}, error) {
		return c.inner.PutItem(ctx, params, optFns...)
	})
	if err != nil {
		return nil, err
	}
	return out.(*dynamodb.PutItemOutput), nil
}

func (c *InstrumentedClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	out, err := c.do("GetItem", func() (interface{}, error) {
		return c.inner.GetItem(ctx, params, optFns...)
	})
	if err != nil {
		return nil, err
	}
	return out.(*dynamodb.GetItemOutput), nil
}

func (c *InstrumentedClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	out, err := c.do("DeleteItem", func() (interface{}, error) {
		return c.inner.DeleteItem(ctx, params, optFns...)
	})
	if err != nil {
		return nil, err
	}
	return out.(*dynamodb.DeleteItemOutput), nil
}

func (c *InstrumentedClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	out, err := c.do("Query", func() (interface{}, error) {
		return c.inner.Query(ctx, params, optFns...)
	})
	if err != nil {
		return nil, err
	}
	return out.(*dynamodb.QueryOutput), nil
}
