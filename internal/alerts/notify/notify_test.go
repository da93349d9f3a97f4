package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"careflow/pkg/platform/circuit"
)

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(context.Context, Notification) error {
	r.calls++
	return r.err
}

func sample() Notification {
	return Notification{
		AlertID:   "a-1",
		PatientID: "p-1",
		Severity:  "URGENT",
		Reason:    "urgent check-in",
		CreatedAt: time.Unix(1_700_000_000, 0).UTC(),
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, n.Notify(context.Background(), sample()))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "a-1", line["alert_id"])
}

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	out := make(kgo.ProduceResults, len(rs))
	for i, r := range rs {
		out[i] = kgo.ProduceResult{Record: r, Err: f.err}
	}
	return out
}

func TestKafkaNotifier(t *testing.T) {
	t.Run("keys records by patient", func(t *testing.T) {
		p := &fakeProducer{}
		require.NoError(t, NewKafkaNotifier(p, "").Notify(context.Background(), sample()))
		require.Len(t, p.records, 1)
		assert.Equal(t, DefaultTopic, p.records[0].Topic)
		assert.Equal(t, []byte("p-1"), p.records[0].Key)

		var decoded Notification
		require.NoError(t, json.Unmarshal(p.records[0].Value, &decoded))
		assert.Equal(t, sample(), decoded)
	})

	t.Run("surfaces produce errors", func(t *testing.T) {
		p := &fakeProducer{err: errors.New("broker down")}
		err := NewKafkaNotifier(p, "alerts").Notify(context.Background(), sample())
		assert.ErrorContains(t, err, "broker down")
	})
}

func TestBreakerNotifier(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("healthy primary is used", func(t *testing.T) {
		primary, fallback := &recordingNotifier{}, &recordingNotifier{}
		n := NewBreakerNotifier(primary, fallback, circuit.New("test"), quiet)
		require.NoError(t, n.Notify(ctx, sample()))
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("failures below threshold surface the primary error", func(t *testing.T) {
		primary := &recordingNotifier{err: errors.New("timeout")}
		fallback := &recordingNotifier{}
		n := NewBreakerNotifier(primary, fallback, circuit.New("test", circuit.WithFailureThreshold(2)), quiet)
		assert.Error(t, n.Notify(ctx, sample()))
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("open breaker skips the primary", func(t *testing.T) {
		primary := &recordingNotifier{err: errors.New("timeout")}
		fallback := &recordingNotifier{}
		breaker := circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
		n := NewBreakerNotifier(primary, fallback, breaker, quiet)

		require.NoError(t, n.Notify(ctx, sample()))
		require.NoError(t, n.Notify(ctx, sample()))
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 2, fallback.calls)
		assert.True(t, breaker.IsOpen())
	})

	t.Run("recovered primary is probed after the cooldown and takes over", func(t *testing.T) {
		now := time.Unix(1_700_000_000, 0)
		primary := &recordingNotifier{err: errors.New("connection refused")}
		fallback := &recordingNotifier{}
		breaker := circuit.New("test",
			circuit.WithFailureThreshold(1),
			circuit.WithCooldown(time.Minute),
			circuit.WithClock(func() time.Time { return now }),
		)
		n := NewBreakerNotifier(primary, fallback, breaker, quiet)

		require.NoError(t, n.Notify(ctx, sample()), "opening failure is served by the fallback")
		primary.err = nil
		require.NoError(t, n.Notify(ctx, sample()))
		assert.Equal(t, 1, primary.calls, "no probe inside the cooldown")

		now = now.Add(time.Minute)
		require.NoError(t, n.Notify(ctx, sample()))
		assert.Equal(t, 2, primary.calls)
		assert.False(t, breaker.IsOpen())
		assert.Equal(t, 2, fallback.calls)

		require.NoError(t, n.Notify(ctx, sample()))
		assert.Equal(t, 3, primary.calls)
	})
}
