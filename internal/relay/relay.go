package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/happybuttons/orderflow/internal/models"
	"github.com/happybuttons/orderflow/internal/repository"
	"github.com/happybuttons/orderflow/pkg/circuitbreaker"
	"github.com/happybuttons/orderflow/pkg/logger"
	"github.com/happybuttons/orderflow/pkg/retry"
)

// Publisher sends an event payload to a topic, keyed for partitioning
type Publisher interface {
	SendMessage(ctx context.Context, topic string, key string, value []byte) error
}

// Relay drains the events directory into Kafka. It polls for pending event
// files on an interval, publishes each keyed by order id, and moves the
// file to processed/ on success. Failed files are retried with backoff
// until the attempt budget is spent, then parked in failed/ for operator
// review. Event files remain on disk as the source of truth throughout;
// poll-based consumers are unaffected by relay state.
type Relay struct {
	events          *repository.EventRepository
	publisher       Publisher
	topic           string
	breaker         *circuitbreaker.CircuitBreaker
	backoff         retry.BackoffStrategy
	pollingInterval time.Duration
	batchSize       int
	maxAttempts     int
	attempts        map[string]*fileAttempt
	logger          logger.Logger
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	running         bool
	mu              sync.Mutex
}

type fileAttempt struct {
	count   int
	nextTry time.Time
}

// Config holds the relay settings
type Config struct {
	Topic           string
	PollingInterval time.Duration
	BatchSize       int
	MaxAttempts     int
	BackoffStrategy retry.BackoffStrategy
}

// New creates a Relay
func New(
	events *repository.EventRepository,
	publisher Publisher,
	config Config,
	logger logger.Logger,
) *Relay {
	ctx, cancel := context.WithCancel(context.Background())

	backoff := config.BackoffStrategy
	if backoff == nil {
		backoff = retry.NewDefaultExponentialBackoff()
	}

	return &Relay{
		events:    events,
		publisher: publisher,
		topic:     config.Topic,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenMaxCalls: 2,
		}),
		backoff:         backoff,
		pollingInterval: config.PollingInterval,
		batchSize:       config.BatchSize,
		maxAttempts:     config.MaxAttempts,
		attempts:        make(map[string]*fileAttempt),
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start starts the relay loop
func (r *Relay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}

	r.running = true
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		r.run()
	}()

	r.logger.Info("Event relay started",
		"topic", r.topic,
		"pollingInterval", r.pollingInterval,
		"batchSize", r.batchSize)
}

// Stop stops the relay loop and waits for it to drain
func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	r.cancel()
	r.wg.Wait()
	r.running = false

	r.logger.Info("Event relay stopped")
}

func (r *Relay) run() {
	ticker := time.NewTicker(r.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if err := r.processBatch(); err != nil {
				r.logger.Error("Failed to process event batch", "error", err)
			}
		}
	}
}

// processBatch publishes one batch of pending event files
func (r *Relay) processBatch() error {
	files, err := r.events.Pending(r.batchSize)

	if err != nil {
		return err
	}

	if len(files) == 0 {
		return nil
	}

	now := time.Now()

	for _, file := range files {
		attempt := r.attempts[file.Name]

		if attempt != nil && now.Before(attempt.nextTry) {
			continue
		}

		// Each publish consumes one breaker slot; in half-open state this
		// caps the batch at the probe budget instead of overrunning it
		if !r.breaker.Allow() {
			r.logger.Warn("Relay circuit open, skipping rest of batch", "state", r.breaker.GetState())
			break
		}

		if err := r.publishFile(file); err != nil {
			r.breaker.Failure()
			r.recordFailure(file.Name, err)
			continue
		}

		r.breaker.Success()
		delete(r.attempts, file.Name)

		if err := r.events.MarkProcessed(file.Name); err != nil {
			r.logger.Error("Failed to mark event as processed", "file", file.Name, "error", err)
		}
	}

	return nil
}

func (r *Relay) publishFile(file repository.EventFile) error {
	key := orderKey(file.Payload)

	ctx, cancel := context.WithTimeout(r.ctx, 10*time.Second)
	defer cancel()

	return r.publisher.SendMessage(ctx, r.topic, key, file.Payload)
}

func (r *Relay) recordFailure(name string, err error) {
	attempt := r.attempts[name]

	if attempt == nil {
		attempt = &fileAttempt{}
		r.attempts[name] = attempt
	}

	attempt.count++

	if attempt.count >= r.maxAttempts {
		r.logger.Error("Event exhausted its attempts, parking in failed",
			"file", name,
			"attempts", attempt.count,
			"error", err)

		delete(r.attempts, name)

		if moveErr := r.events.MarkFailed(name); moveErr != nil {
			r.logger.Error("Failed to park event", "file", name, "error", moveErr)
		}
		return
	}

	backoff := r.backoff.NextBackoff(attempt.count)
	attempt.nextTry = time.Now().Add(backoff)

	r.logger.Warn("Event publish failed, will retry",
		"file", name,
		"attempt", attempt.count,
		"maxAttempts", r.maxAttempts,
		"backoff", backoff,
		"error", err)
}

// orderKey extracts the order id from an event payload for partitioning;
// an unparseable payload falls back to an empty key
func orderKey(payload []byte) string {
	var event models.StateChangeEvent

	if err := json.Unmarshal(payload, &event); err != nil {
		return ""
	}

	return event.OrderID
}
