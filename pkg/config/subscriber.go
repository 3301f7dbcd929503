package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SubscriberConfig describes a durable JetStream pull consumer and its worker pool.
type SubscriberConfig struct {
	Stream   string `koanf:"stream"`
	Subject  string `koanf:"subject"`
	Consumer string `koanf:"consumer"`
	// MaxDeliver caps redeliveries of a nacked message. Zero means unlimited.
	MaxDeliver int           `koanf:"maxdeliver"`
	Batch      int           `koanf:"batch"`
	Timeout    time.Duration `koanf:"timeout"`
	Interval   time.Duration `koanf:"interval"`
	Workers    int           `koanf:"workers"`
}

func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS Subscriber ---\n")
	b.WriteString(fmt.Sprintf("  subscriber.stream: %s\n", c.Stream))
	b.WriteString(fmt.Sprintf("  subscriber.subject: %s\n", c.Subject))
	b.WriteString(fmt.Sprintf("  subscriber.consumer: %s\n", c.Consumer))
	b.WriteString(fmt.Sprintf("  subscriber.maxdeliver: %d\n", c.MaxDeliver))
	b.WriteString(fmt.Sprintf("  subscriber.batch: %d, timeout: %s, interval: %s\n", c.Batch, c.Timeout, c.Interval))
	b.WriteString(fmt.Sprintf("  subscriber.workers: %d\n", c.Workers))
	return b.String()
}

func (c *SubscriberConfig) Validate() error {
	var errs []error
	if c.Stream == "" {
		errs = append(errs, errors.New("stream is not configured"))
	}
	if c.Subject == "" || strings.ContainsAny(c.Subject, " \t") {
		errs = append(errs, fmt.Errorf("invalid subject %q", c.Subject))
	}
	if c.Consumer == "" || strings.ContainsAny(c.Consumer, ".*> ") {
		errs = append(errs, fmt.Errorf("invalid consumer name %q", c.Consumer))
	}
	if c.MaxDeliver < 0 {
		errs = append(errs, errors.New("maxdeliver must not be negative"))
	}
	if c.Batch <= 0 || c.Workers <= 0 {
		errs = append(errs, errors.New("batch and workers must be greater than zero"))
	}
	if c.Timeout <= 0 || c.Interval <= 0 {
		errs = append(errs, errors.New("timeout and interval must be greater than zero"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("subscriber: %w", err)
	}
	return nil
}
