package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketwatch/internal/market"
)

type memRules struct {
	price   []market.PriceAlert
	percent []market.PercentageAlert
	stamps  int
}

func (m *memRules) ActivePriceAlerts(context.Context, int64) ([]market.PriceAlert, error) {
	return append([]market.PriceAlert(nil), m.price...), nil
}

func (m *memRules) ActivePercentageAlerts(context.Context, int64) ([]market.PercentageAlert, error) {
	return append([]market.PercentageAlert(nil), m.percent...), nil
}

func (m *memRules) MarkPriceAlertTriggered(_ context.Context, id int64, at time.Time) error {
	for i := range m.price {
		if m.price[i].ID == id {
			m.price[i].LastTriggeredAt = &at
		}
	}
	m.stamps++
	return nil
}

func (m *memRules) MarkPercentageAlertTriggered(_ context.Context, id int64, at time.Time) error {
	for i := range m.percent {
		if m.percent[i].ID == id {
			m.percent[i].LastTriggeredAt = &at
		}
	}
	m.stamps++
	return nil
}

type memSink struct {
	creds market.TelegramSettings
	ok    bool
}

func (s memSink) ActiveTelegramSettings(context.Context) (market.TelegramSettings, bool, error) {
	return s.creds, s.ok, nil
}

type fixedStats struct {
	stats market.Stats
	err   error
}

func (f fixedStats) Compute(context.Context, string, string) (market.Stats, error) {
	return f.stats, f.err
}

type recordingNotifier struct {
	sent []string
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, _ market.TelegramSettings, text string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, text)
	return nil
}

type countingRecorder struct{ ok, failed int }

func (c *countingRecorder) AlertDispatched(string) { c.ok++ }
func (c *countingRecorder) AlertFailed(string)     { c.failed++ }

var (
	item      = market.WatchlistItem{ID: 1, Query: "Vollmond", ServerName: "Chimera", Active: true}
	fiveStats = market.Stats{Min: 100, AvgBottom20: 100, Avg: 300, Count: 5}
)

func newTestEvaluator(rules *memRules, notifier Notifier, clock *time.Time) *Evaluator {
	ev := NewEvaluator(rules, memSink{creds: testCreds, ok: true}, fixedStats{stats: fiveStats}, notifier, nil, 30*time.Minute, testLogger())
	ev.SetClock(func() time.Time { return *clock })
	return ev
}

func TestThresholdCooldownDispatchesOnce(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rules := &memRules{price: []market.PriceAlert{{ID: 7, Threshold: 150, Direction: market.DirectionBelow, PriceType: market.PriceTypeYang, Active: true}}}
	notifier := &recordingNotifier{}
	ev := newTestEvaluator(rules, notifier, &now)

	n, err := ev.Evaluate(context.Background(), item)
	if err != nil || n != 1 {
		t.Fatalf("first evaluation should dispatch once, got %d %v", n, err)
	}

	now = now.Add(10 * time.Minute)
	n, err = ev.Evaluate(context.Background(), item)
	if err != nil || n != 0 {
		t.Fatalf("second evaluation inside cooldown should not dispatch, got %d %v", n, err)
	}

	now = now.Add(25 * time.Minute)
	if n, _ := ev.Evaluate(context.Background(), item); n != 1 {
		t.Fatalf("evaluation after cooldown should dispatch again, got %d", n)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(notifier.sent))
	}
}

func TestThresholdNotCrossed(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rules := &memRules{price: []market.PriceAlert{{ID: 1, Threshold: 99, Direction: market.DirectionBelow}}}
	notifier := &recordingNotifier{}
	if n, _ := newTestEvaluator(rules, notifier, &now).Evaluate(context.Background(), item); n != 0 {
		t.Fatalf("min 100 is not below 99, got %d dispatches", n)
	}
}

func TestPercentageRuleFires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rule, err := market.NewPercentageAlert(1, "min", "avg", 50)
	if err != nil {
		t.Fatal(err)
	}
	rule.ID = 3
	rules := &memRules{percent: []market.PercentageAlert{rule}}
	notifier := &recordingNotifier{}

	n, err := newTestEvaluator(rules, notifier, &now).Evaluate(context.Background(), item)
	if err != nil || n != 1 {
		t.Fatalf("66.7%% deviation should fire at 50%%, got %d %v", n, err)
	}
	if rules.percent[0].LastTriggeredAt == nil {
		t.Fatal("rule should be stamped after dispatch")
	}
}

func TestDispatchFailureDoesNotStamp(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rules := &memRules{price: []market.PriceAlert{
		{ID: 1, Threshold: 150, Direction: market.DirectionBelow},
		{ID: 2, Threshold: 50, Direction: market.DirectionAbove},
	}}
	notifier := &recordingNotifier{err: market.ErrDispatch}
	rec := &countingRecorder{}
	ev := newTestEvaluator(rules, notifier, &now)
	ev.SetRecorder(rec)

	n, err := ev.Evaluate(context.Background(), item)
	if err != nil || n != 0 {
		t.Fatalf("failed sends are not errors and not counted, got %d %v", n, err)
	}
	if rules.stamps != 0 {
		t.Fatal("failed dispatch must not stamp")
	}
	if rec.failed != 2 {
		t.Fatalf("both siblings should be attempted, got %d failures", rec.failed)
	}
}

func TestEvaluateSkipsWithoutSink(t *testing.T) {
	rules := &memRules{price: []market.PriceAlert{{ID: 1, Threshold: 150, Direction: market.DirectionBelow}}}
	notifier := &recordingNotifier{}
	ev := NewEvaluator(rules, memSink{}, fixedStats{stats: fiveStats}, notifier, nil, 30*time.Minute, testLogger())

	if n, err := ev.Evaluate(context.Background(), item); err != nil || n != 0 {
		t.Fatalf("no sink should skip silently, got %d %v", n, err)
	}

	fallback := testCreds
	ev = NewEvaluator(rules, memSink{}, fixedStats{stats: fiveStats}, notifier, &fallback, 30*time.Minute, testLogger())
	if n, _ := ev.Evaluate(context.Background(), item); n != 1 {
		t.Fatalf("configured fallback should be used, got %d", n)
	}
}

func TestEvaluateNoData(t *testing.T) {
	rules := &memRules{price: []market.PriceAlert{{ID: 1, Threshold: 150, Direction: market.DirectionBelow}}}
	ev := NewEvaluator(rules, memSink{creds: testCreds, ok: true}, fixedStats{err: market.ErrNoData}, &recordingNotifier{}, nil, 30*time.Minute, testLogger())
	if n, err := ev.Evaluate(context.Background(), item); err != nil || n != 0 {
		t.Fatalf("no data should be a silent skip, got %d %v", n, err)
	}

	boom := errors.New("db down")
	ev = NewEvaluator(rules, memSink{creds: testCreds, ok: true}, fixedStats{err: boom}, &recordingNotifier{}, nil, 30*time.Minute, testLogger())
	if _, err := ev.Evaluate(context.Background(), item); !errors.Is(err, boom) {
		t.Fatalf("store errors should propagate, got %v", err)
	}
}

// serverStats only has listings on one server.
type serverStats struct {
	server        string
	query, gotSrv string
}

func (s *serverStats) Compute(_ context.Context, query, server string) (market.Stats, error) {
	s.query, s.gotSrv = query, server
	if server != s.server {
		return market.Stats{}, market.ErrNoData
	}
	return fiveStats, nil
}

func TestEvaluateScopesAggregatesToItemServer(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	stats := &serverStats{server: "Teutonia"}
	rules := &memRules{price: []market.PriceAlert{{ID: 9, Threshold: 150, Direction: market.DirectionBelow, Active: true}}}
	notifier := &recordingNotifier{}
	ev := NewEvaluator(rules, memSink{creds: testCreds, ok: true}, stats, notifier, nil, 30*time.Minute, testLogger())
	ev.SetClock(func() time.Time { return now })

	n, err := ev.Evaluate(context.Background(), item)
	if err != nil || n != 0 {
		t.Fatalf("listings on another server must not fire, got %d %v", n, err)
	}
	if stats.query != "Vollmond" || stats.gotSrv != "Chimera" {
		t.Fatalf("aggregates must be computed for the item's pair, got %q on %q", stats.query, stats.gotSrv)
	}

	onTeutonia := item
	onTeutonia.ServerName = "Teutonia"
	if n, err := ev.Evaluate(context.Background(), onTeutonia); err != nil || n != 1 {
		t.Fatalf("item on the listing server should fire, got %d %v", n, err)
	}
}
