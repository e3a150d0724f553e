package history

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-lights/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-lights/internal/light"
	"github.com/nerrad567/gray-logic-lights/migrations"
)

func newTestStore(t *testing.T, device string) *Store {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background(), migrations.FS))

	return NewStore(db.DB, device)
}

// fixedClock returns a clock the test can move.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	var mu sync.Mutex
	now := start
	return func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}, func(d time.Duration) {
			mu.Lock()
			now = now.Add(d)
			mu.Unlock()
		}
}

func TestRecordAndGetHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "lamp")

	report := light.DeviceState{Power: light.PowerOn, Brightness: 180, ColorTemp: 300}
	require.NoError(t, s.RecordReport(ctx, report))
	require.NoError(t, s.RecordCommand(ctx, "6f1c7b7e-7d0e-4c52-9d0b-1f1d5f0e2a11", light.Dim(30), light.BrightnessDelta(150)))

	entries, err := s.GetHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	cmd := entries[0]
	assert.Equal(t, KindCommand, cmd.Kind)
	assert.Equal(t, "lamp", cmd.Device)
	assert.Equal(t, "dim(30)", cmd.Command)
	assert.Equal(t, "6f1c7b7e-7d0e-4c52-9d0b-1f1d5f0e2a11", cmd.CorrelationID)
	assert.JSONEq(t, `{"brightness":150}`, string(cmd.Payload))

	rep := entries[1]
	assert.Equal(t, KindReport, rep.Kind)
	assert.Empty(t, rep.Command)
	assert.Empty(t, rep.CorrelationID)

	decoded, err := light.DecodeState(rep.Payload)
	require.NoError(t, err)
	assert.Equal(t, report, decoded)
}

func TestGetHistoryScopedToDevice(t *testing.T) {
	ctx := context.Background()
	lamp := newTestStore(t, "lamp")
	desk := NewStore(lamp.db, "desk")

	require.NoError(t, lamp.RecordCommand(ctx, "a", light.TurnOn(), light.PowerDelta(light.PowerOn)))
	require.NoError(t, desk.RecordCommand(ctx, "b", light.TurnOff(), light.PowerDelta(light.PowerOff)))

	entries, err := desk.GetHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "off", entries[0].Command)
}

func TestGetHistoryLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "lamp")

	for i := 0; i < maxLimit+5; i++ {
		require.NoError(t, s.RecordCommand(ctx, "", light.Brighten(1), light.BrightnessDelta(uint64(i))))
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"explicit", 3, 3},
		{"default", 0, defaultLimit},
		{"capped", 1000, maxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.GetHistory(ctx, tt.limit)
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
		})
	}

	entries, err := s.GetHistory(ctx, 1)
	require.NoError(t, err)
	var delta map[string]int
	require.NoError(t, json.Unmarshal(entries[0].Payload, &delta))
	assert.Equal(t, maxLimit+4, delta["brightness"], "newest entry first")
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "lamp")

	clock, advance := fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.now = clock

	require.NoError(t, s.RecordReport(ctx, light.DeviceState{Power: light.PowerOff}))
	advance(48 * time.Hour)
	require.NoError(t, s.RecordReport(ctx, light.DeviceState{Power: light.PowerOn}))

	n, err := s.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := s.GetHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), entries[0].CreatedAt)

	_, err = s.Prune(ctx, 0)
	assert.Error(t, err)
}

type recordingLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (l *recordingLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	l.infos = append(l.infos, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func TestRunPrunerStopsOnCancel(t *testing.T) {
	s := newTestStore(t, "lamp")
	clock, advance := fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.now = clock

	require.NoError(t, s.RecordReport(context.Background(), light.DeviceState{Power: light.PowerOn}))
	advance(72 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	logger := &recordingLogger{}
	done := make(chan struct{})
	go func() {
		s.RunPruner(ctx, 24*time.Hour, time.Hour, logger)
		close(done)
	}()

	require.Eventually(t, func() bool {
		logger.mu.Lock()
		defer logger.mu.Unlock()
		return len(logger.infos) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPruner did not stop")
	}
}

func TestStartPrunerStopJoins(t *testing.T) {
	s := newTestStore(t, "lamp")
	clock, advance := fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.now = clock

	require.NoError(t, s.RecordReport(context.Background(), light.DeviceState{Power: light.PowerOn}))
	advance(72 * time.Hour)

	logger := &recordingLogger{}
	stop := s.StartPruner(context.Background(), 24*time.Hour, time.Millisecond, logger)

	require.Eventually(t, func() bool {
		logger.mu.Lock()
		defer logger.mu.Unlock()
		return len(logger.infos) == 1
	}, 2*time.Second, 5*time.Millisecond)

	stop()

	// Nothing may touch the database once stop has returned.
	require.NoError(t, s.db.Close())
	time.Sleep(20 * time.Millisecond)

	logger.mu.Lock()
	defer logger.mu.Unlock()
	assert.Empty(t, logger.warns)
}
