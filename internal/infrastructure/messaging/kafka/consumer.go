package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/harkencre/appraisal-platform/internal/config"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
	ErrConsumerClosed = errors.New(errors.ErrCodeInternal, "consumer is closed")
)

// Handler processes one decoded envelope. Returning an error triggers a
// bounded retry; the message is committed either way once the attempts are
// spent, so handlers must tolerate redelivery.
type Handler func(ctx context.Context, env *EventEnvelope) error

// readerInterface abstracts kafka.Reader for tests.
type readerInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads the platform's topics within one consumer group and
// dispatches envelopes to per-topic handlers.
type Consumer struct {
	reader  readerInterface
	logger  logging.Logger
	retries int
	backoff time.Duration

	mu       sync.RWMutex
	handlers map[string]Handler

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewConsumer builds a Consumer from configuration, subscribed to every
// platform topic.
func NewConsumer(kafkaCfg config.KafkaConfig, workerCfg config.WorkerConfig, log logging.Logger) (*Consumer, error) {
	if len(kafkaCfg.Brokers) == 0 {
		return nil, errors.New(errors.CodeValidation, "kafka brokers required")
	}
	if kafkaCfg.GroupID == "" {
		return nil, errors.New(errors.CodeValidation, "kafka group_id required")
	}

	startOffset := kafka.FirstOffset
	if kafkaCfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           kafkaCfg.Brokers,
		GroupID:           kafkaCfg.GroupID,
		GroupTopics:       Topics(),
		StartOffset:       startOffset,
		MinBytes:          1,
		MaxBytes:          10 * 1024 * 1024,
		MaxWait:           time.Second,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})

	return newConsumer(reader, workerCfg, log), nil
}

// NewConsumerWithReader wraps an existing reader (tests).
func NewConsumerWithReader(r readerInterface, workerCfg config.WorkerConfig, log logging.Logger) *Consumer {
	return newConsumer(r, workerCfg, log)
}

func newConsumer(r readerInterface, workerCfg config.WorkerConfig, log logging.Logger) *Consumer {
	retries := workerCfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := workerCfg.RetryBackoffMS
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	return &Consumer{
		reader:   r,
		logger:   log,
		retries:  retries,
		backoff:  backoff,
		handlers: make(map[string]Handler),
	}
}

// Subscribe registers the handler for a topic. Must be called before Start.
func (c *Consumer) Subscribe(topic string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = h
}

// Start begins the fetch/dispatch loop. It returns immediately; Stop blocks
// until the loop drains.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.run(ctx)
	return nil
}

func (c *Consumer) run(ctx context.Context) {
	defer c.wg.Done()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to fetch message", logging.Err(err))
			continue
		}

		c.handleMessage(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				logging.String("topic", msg.Topic), logging.Err(err))
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.mu.RLock()
	handler, ok := c.handlers[msg.Topic]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("no handler for topic", logging.String("topic", msg.Topic))
		return
	}

	env, err := ParseEnvelope(msg.Value)
	if err != nil {
		c.logger.Error("dropping malformed event",
			logging.String("topic", msg.Topic), logging.Err(err))
		return
	}

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		if err = handler(ctx, env); err == nil {
			return
		}
		c.logger.Warn("event handler failed",
			logging.String("topic", msg.Topic),
			logging.String("event_id", env.EventID),
			logging.Int("attempt", attempt+1),
			logging.Err(err),
		)
	}

	c.logger.Error("giving up on event after retries",
		logging.String("topic", msg.Topic),
		logging.String("event_id", env.EventID),
		logging.Err(err),
	)
}

// Stop cancels the loop, waits for it to drain, and closes the reader.
func (c *Consumer) Stop() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}
