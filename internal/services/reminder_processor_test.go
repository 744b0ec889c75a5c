package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadenze/internal/amqp"
	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/recurrence"
)

type fakePublisher struct {
	msgs []*amqp.BillDueMessage
	fail map[string]error
}

func (f *fakePublisher) PublishBillDue(_ context.Context, msg *amqp.BillDueMessage) error {
	if err := f.fail[msg.Key()]; err != nil {
		return err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type fakeSentLog struct {
	sent map[string]bool
}

func (f *fakeSentLog) MarkSent(_ context.Context, id string, due core.Date) (bool, error) {
	k := id + "@" + due.String()
	fresh := !f.sent[k]
	f.sent[k] = true
	return fresh, nil
}

func (f *fakeSentLog) WasSent(_ context.Context, id string, due core.Date) (bool, error) {
	return f.sent[id+"@"+due.String()], nil
}

type staticSource []core.Transaction

func (s staticSource) ListTransactions(context.Context) ([]core.Transaction, error) {
	return s, nil
}

func netflixEngine(today core.Date) *recurrence.Engine {
	var txs staticSource
	for i, d := range []core.Date{core.NewDate(2024, 1, 5), core.NewDate(2024, 2, 5), core.NewDate(2024, 3, 5)} {
		txs = append(txs, core.Transaction{
			ID:          string(rune('a' + i)),
			Date:        d,
			Amount:      core.Money{Cents: -499},
			Type:        core.Expense,
			Category:    "Subscriptions",
			Description: "Netflix",
		})
	}
	return recurrence.NewEngine(txs,
		recurrence.WithClock(recurrence.FixedClock(today)),
		recurrence.WithLogger(applog.Discard()))
}

func TestReminderProcessorPublishesOnce(t *testing.T) {
	now := time.Date(2024, 4, 3, 8, 0, 0, 0, time.UTC)
	pub := &fakePublisher{}
	p := NewReminderProcessor(netflixEngine(core.NewDate(2024, 4, 3)), pub, 3, WithReminderLogger(applog.Discard()))

	n, err := p.ProcessDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, core.NewDate(2024, 4, 5), pub.msgs[0].DueDate)
	assert.Equal(t, int64(499), pub.msgs[0].AmountCents)
	assert.Equal(t, "Netflix", pub.msgs[0].Description)

	n, err = p.ProcessDue(context.Background(), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "same occurrence must not be published twice")
}

func TestReminderProcessorOutsideWindow(t *testing.T) {
	pub := &fakePublisher{}
	p := NewReminderProcessor(netflixEngine(core.NewDate(2024, 4, 10)), pub, 3, WithReminderLogger(applog.Discard()))

	n, err := p.ProcessDue(context.Background(), time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.msgs)
}

func TestReminderProcessorSentLog(t *testing.T) {
	now := time.Date(2024, 4, 3, 8, 0, 0, 0, time.UTC)
	log := &fakeSentLog{sent: map[string]bool{}}
	engine := netflixEngine(core.NewDate(2024, 4, 3))

	first := NewReminderProcessor(engine, &fakePublisher{}, 3, WithSentLog(log), WithReminderLogger(applog.Discard()))
	n, err := first.ProcessDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A fresh processor, as after a restart, consults the persistent log.
	pub := &fakePublisher{}
	restarted := NewReminderProcessor(engine, pub, 3, WithSentLog(log), WithReminderLogger(applog.Discard()))
	n, err = restarted.ProcessDue(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.msgs)
}

func TestReminderProcessorPublishFailureRetries(t *testing.T) {
	now := time.Date(2024, 4, 3, 8, 0, 0, 0, time.UTC)
	engine := netflixEngine(core.NewDate(2024, 4, 3))
	series, err := engine.ListRecurringSeries(context.Background())
	require.NoError(t, err)
	key := series[0].ID + "@2024-04-05"

	boom := errors.New("broker down")
	pub := &fakePublisher{fail: map[string]error{key: boom}}
	p := NewReminderProcessor(engine, pub, 3, WithReminderLogger(applog.Discard()))

	n, err := p.ProcessDue(context.Background(), now)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)

	delete(pub.fail, key)
	n, err = p.ProcessDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "failed reminders are retried on the next run")
}

func TestReminderProcessorNotInitialized(t *testing.T) {
	_, err := (&ReminderProcessor{}).ProcessDue(context.Background(), time.Now())
	assert.Error(t, err)
}
