package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

type NotificationConsumer interface {
	StartConsumers(ctx context.Context, numWorkers int) error
	Stop() error
	HealthCheck(ctx context.Context) error
}

type ConsumerConfig struct {
	Brokers           []string
	GroupID           string
	Topics            []string
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	MaxProcessingTime time.Duration
	OffsetOldest      bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:           []string{"localhost:9092"},
		GroupID:           "skytrip-notification-workers",
		Topics:            []string{"notifications"},
		SessionTimeout:    30 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		MaxProcessingTime: 5 * time.Minute,
		OffsetOldest:      false,
		MaxRetries:        3,
		RetryBackoff:      time.Second,
	}
}

// KafkaNotificationConsumer runs a pool of consumer-group workers that turn
// queued notifications into SMTP deliveries. Offsets are committed only after
// a message is handled, so a crashed worker replays its claim.
type KafkaNotificationConsumer struct {
	group        sarama.ConsumerGroup
	config       *ConsumerConfig
	emailService EmailService
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func NewKafkaNotificationConsumer(config *ConsumerConfig, emailService EmailService) (NotificationConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = config.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = config.HeartbeatInterval
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &KafkaNotificationConsumer{
		group:        group,
		config:       config,
		emailService: emailService,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

func (c *KafkaNotificationConsumer) StartConsumers(ctx context.Context, numWorkers int) error {
	log.Printf("📥 Starting %d notification workers on topics %v", numWorkers, c.config.Topics)

	go c.drainErrors()

	for i := 0; i < numWorkers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.consumeLoop(ctx, workerID)
		}(i)
	}

	return nil
}

// consumeLoop rejoins the group until the context ends. Consume returns on
// every rebalance; that is normal, not an error.
func (c *KafkaNotificationConsumer) consumeLoop(ctx context.Context, workerID int) {
	handler := &deliveryHandler{
		workerID:     workerID,
		emailService: c.emailService,
		maxRetries:   c.config.MaxRetries,
		retryBackoff: c.config.RetryBackoff,
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("📥 Worker %d shutting down", workerID)
			return
		default:
			if err := c.group.Consume(ctx, c.config.Topics, handler); err != nil {
				log.Printf("📥 Worker %d consume error: %v", workerID, err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (c *KafkaNotificationConsumer) drainErrors() {
	for err := range c.group.Errors() {
		log.Printf("📥 Consumer group error: %v", err)
	}
}

func (c *KafkaNotificationConsumer) Stop() error {
	log.Println("📥 Stopping notification workers...")
	c.cancel()
	c.wg.Wait()

	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}

	log.Println("📥 Notification workers stopped")
	return nil
}

func (c *KafkaNotificationConsumer) HealthCheck(ctx context.Context) error {
	select {
	case <-c.ctx.Done():
		return fmt.Errorf("consumer is stopped")
	default:
	}
	if c.emailService == nil {
		return fmt.Errorf("email service not configured")
	}
	return nil
}

// deliveryHandler processes one claim at a time. A message is marked only
// after handling; delivery failures after all retries are logged and marked
// anyway so one broken recipient cannot wedge the partition.
type deliveryHandler struct {
	workerID     int
	emailService EmailService
	maxRetries   int
	retryBackoff time.Duration
}

func (h *deliveryHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Printf("📥 Worker %d joined the group", h.workerID)
	return nil
}

func (h *deliveryHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Printf("📥 Worker %d left the group", h.workerID)
	return nil
}

func (h *deliveryHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			if err := h.deliver(session.Context(), message); err != nil {
				log.Printf("📥 Worker %d: delivery failed for offset %d: %v", h.workerID, message.Offset, err)
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *deliveryHandler) deliver(ctx context.Context, message *sarama.ConsumerMessage) error {
	var notification EmailNotification
	if err := json.Unmarshal(message.Value, &notification); err != nil {
		return fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	if notification.IsExpired() {
		log.Printf("📥 Worker %d: notification %s expired, dropping", h.workerID, notification.ID)
		return nil
	}

	notification.Status = NotificationStatusSending

	if err := h.sendWithRetry(ctx, &notification); err != nil {
		return err
	}

	notification.MarkSent()
	log.Printf("📧 Worker %d: sent %s to %s", h.workerID, notification.Type, notification.RecipientEmail)
	return nil
}

// sendWithRetry drives the notification's own retry state machine with an
// exponential backoff between attempts.
func (h *deliveryHandler) sendWithRetry(ctx context.Context, notification *EmailNotification) error {
	notification.MaxRetries = h.maxRetries
	for {
		err := h.emailService.SendNotification(ctx, notification)
		if err == nil {
			return nil
		}

		notification.MarkFailed(err)
		notification.IncrementRetry()
		if notification.Status != NotificationStatusRetrying {
			return fmt.Errorf("gave up after %d attempts: %w", notification.RetryCount, err)
		}

		delay := h.retryBackoff * time.Duration(1<<(notification.RetryCount-1))
		log.Printf("📥 Worker %d: retry %d in %v: %v", h.workerID, notification.RetryCount, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
