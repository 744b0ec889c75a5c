package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scadenze/internal/amqp"
	"scadenze/internal/cache"
	"scadenze/internal/calendar"
	"scadenze/internal/core"
	applog "scadenze/internal/log"
)

const sentCacheSize = 4096

// Publisher sends bill-due reminders.
type Publisher interface {
	PublishBillDue(ctx context.Context, msg *amqp.BillDueMessage) error
}

// Schedule is the part of the recurrence engine the processor needs.
type Schedule interface {
	ListRecurringSeries(ctx context.Context) ([]core.RecurringSeries, error)
	Occurrences(ctx context.Context, from, to core.Date) ([]core.ProjectedOccurrence, error)
}

// SentLog persists published reminders across restarts.
type SentLog interface {
	MarkSent(ctx context.Context, seriesID string, due core.Date) (bool, error)
	WasSent(ctx context.Context, seriesID string, due core.Date) (bool, error)
}

// ReminderProcessor publishes one reminder per upcoming projected occurrence.
type ReminderProcessor struct {
	schedule      Schedule
	publisher     Publisher
	lookaheadDays int
	sent          *cache.LRUCache[struct{}]
	sentLog       SentLog
	logger        *applog.Logger
}

// ReminderOption configures a ReminderProcessor.
type ReminderOption func(*ReminderProcessor)

// WithSentLog adds persistent deduplication on top of the in-memory cache.
func WithSentLog(l SentLog) ReminderOption {
	return func(p *ReminderProcessor) { p.sentLog = l }
}

func WithReminderLogger(l *applog.Logger) ReminderOption {
	return func(p *ReminderProcessor) { p.logger = l }
}

// NewReminderProcessor creates a processor looking lookaheadDays past today.
func NewReminderProcessor(schedule Schedule, publisher Publisher, lookaheadDays int, opts ...ReminderOption) *ReminderProcessor {
	p := &ReminderProcessor{
		schedule:      schedule,
		publisher:     publisher,
		lookaheadDays: lookaheadDays,
		// Entries only need to outlive the lookahead window.
		sent: cache.NewLRUCache[struct{}](sentCacheSize, time.Duration(lookaheadDays+2)*24*time.Hour),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = applog.Default(applog.ComponentReminder)
	}
	p.logger = p.logger.WithComponent(applog.ComponentReminder)
	return p
}

// ProcessDue publishes reminders for occurrences in [today, today+lookahead]
// not published before. It returns how many were published.
func (p *ReminderProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.schedule == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	today := calendar.Truncate(now)
	until := calendar.AddDays(today, p.lookaheadDays)

	occurrences, err := p.schedule.Occurrences(ctx, today, until)
	if err != nil {
		return 0, fmt.Errorf("list upcoming occurrences: %w", err)
	}
	if len(occurrences) == 0 {
		return 0, nil
	}

	series, err := p.schedule.ListRecurringSeries(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring series: %w", err)
	}
	byID := make(map[string]core.RecurringSeries, len(series))
	for _, s := range series {
		byID[s.ID] = s
	}

	p.logger.InfoContext(ctx, "Processing upcoming bills",
		applog.FieldCount, len(occurrences),
		"from", today.String(),
		"until", until.String())

	published := 0
	var errs []error
	for _, occ := range occurrences {
		s, ok := byID[occ.SeriesID]
		if !ok {
			continue
		}
		msg := amqp.NewBillDueMessage(s, occ.Date, now)

		done, err := p.alreadySent(ctx, msg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if done {
			continue
		}

		if err := p.publisher.PublishBillDue(ctx, msg); err != nil {
			p.logger.ErrorContext(ctx, "Failed to publish bill due reminder",
				applog.FieldSeriesID, msg.SeriesID,
				applog.FieldDueDate, msg.DueDate.String(),
				applog.FieldError, err)
			errs = append(errs, err)
			continue
		}

		p.sent.Set(msg.Key(), struct{}{})
		if p.sentLog != nil {
			if _, err := p.sentLog.MarkSent(ctx, msg.SeriesID, msg.DueDate); err != nil {
				errs = append(errs, err)
			}
		}
		published++
	}

	return published, errors.Join(errs...)
}

func (p *ReminderProcessor) alreadySent(ctx context.Context, msg *amqp.BillDueMessage) (bool, error) {
	if _, ok := p.sent.Get(msg.Key()); ok {
		return true, nil
	}
	if p.sentLog == nil {
		return false, nil
	}
	sent, err := p.sentLog.WasSent(ctx, msg.SeriesID, msg.DueDate)
	if err != nil {
		return false, fmt.Errorf("check sent log: %w", err)
	}
	if sent {
		p.sent.Set(msg.Key(), struct{}{})
	}
	return sent, nil
}

// CleanExpired drops dedup entries past their window.
func (p *ReminderProcessor) CleanExpired() int {
	return p.sent.CleanExpired()
}

// LogBillDue is a consumer handler that writes each reminder to the log.
func LogBillDue(logger *applog.Logger) func(context.Context, *amqp.BillDueMessage) error {
	return func(ctx context.Context, msg *amqp.BillDueMessage) error {
		logger.InfoContext(ctx, "Bill due",
			applog.FieldSeriesID, msg.SeriesID,
			"description", msg.Description,
			applog.FieldDueDate, msg.DueDate.String(),
			applog.FieldAmountCents, msg.AmountCents,
			applog.FieldFrequency, string(msg.Frequency))
		return nil
	}
}

// LogPublisher writes reminders to the log instead of a broker.
type LogPublisher struct {
	Logger *applog.Logger
}

func (p LogPublisher) PublishBillDue(ctx context.Context, msg *amqp.BillDueMessage) error {
	return LogBillDue(p.Logger)(ctx, msg)
}
