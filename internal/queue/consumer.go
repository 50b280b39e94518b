package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// LogFileName is the audit file written inside the consumer's LogDir.
const LogFileName = "reservation.log"

const maxBackoff = 30 * time.Second

// Consumer listens to QueueName and appends one line per event to
// LogDir/reservation.log.
type Consumer struct {
	URL    string
	LogDir string
	Log    *zap.Logger
}

// NewConsumer returns a Consumer; an empty logDir defaults to "logs".
func NewConsumer(url, logDir string, log *zap.Logger) *Consumer {
	if logDir == "" {
		logDir = "logs"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{URL: url, LogDir: logDir, Log: log.Named("reservation-consumer")}
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are retried with exponential backoff from one second up
// to thirty.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(d.Body); err != nil {
				c.Log.Error("handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // do not requeue, avoids a tight redelivery loop
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends its audit line.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.LogDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders an event as a single human-readable log line.
func FormatLine(ev ReservationEvent) string {
	verb := "Reservation"
	switch ev.Type {
	case EventCreated:
		verb = "Reservation created"
	case EventCancelled:
		verb = "Reservation cancelled"
	}
	seats := make([]string, len(ev.Seats))
	for i, s := range ev.Seats {
		seats[i] = strconv.Itoa(s)
	}
	return fmt.Sprintf("[%s] %s | reservation_id=%s | emp_id=%d | manager_id=%d | date=%s | time=%s | slots=%d | amount=%d | seats=[%s]\n",
		ev.OccurredAt, verb, ev.ReservationID, ev.EmployeeID, ev.ManagerID, ev.Date, ev.Time, ev.NumSlots, ev.Amount, strings.Join(seats, ","))
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
