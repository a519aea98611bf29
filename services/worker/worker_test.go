package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/carspecworker/internal/orchestrator"
	"sjsage522/carspecworker/logger"
)

// MockRunner implements Runner for testing
type MockRunner struct {
	mu     sync.Mutex
	calls  int
	report *orchestrator.Report
	err    error
}

var _ Runner = (*MockRunner)(nil)

func (m *MockRunner) Start(ctx context.Context) (*orchestrator.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.report, m.err
}

func (m *MockRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// captureLogs redirects the worker's logger into a buffer
func captureLogs(w *Worker) *bytes.Buffer {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf)
	w.log = logger.ForWorker()
	return &buf
}

func TestRunOnceLogsSummary(t *testing.T) {
	report := orchestrator.NewReport(2, time.Now())
	report.MergeChunk(nil, []orchestrator.Counts{{Models: 3, Generations: 4, Cars: 9}})
	report.Finalize(nil, time.Now())

	runner := &MockRunner{report: report}
	w := NewWorker(context.Background(), runner, "0 2 1 * *", false)
	buf := captureLogs(w)

	w.RunOnce()

	assert.Equal(t, 1, runner.Calls())
	out := buf.String()
	assert.Contains(t, out, "Crawl finished")
	assert.Contains(t, out, `"cars":9`)
	assert.Contains(t, out, "heap_alloc_mb")
}

func TestRunOnceLogsFailure(t *testing.T) {
	runner := &MockRunner{err: errors.New("brand index: boom")}
	w := NewWorker(context.Background(), runner, "0 2 1 * *", false)
	buf := captureLogs(w)

	w.RunOnce()

	assert.Contains(t, buf.String(), "Crawl failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestRunOnceSkipsWhenRunning(t *testing.T) {
	runner := &MockRunner{err: orchestrator.ErrAlreadyRunning}
	w := NewWorker(context.Background(), runner, "0 2 1 * *", false)
	buf := captureLogs(w)

	w.RunOnce()

	assert.Contains(t, buf.String(), "already running")
	assert.NotContains(t, buf.String(), "Crawl failed")
}

func TestStartRunsOnStartupAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &MockRunner{report: orchestrator.NewReport(0, time.Now())}
	w := NewWorker(ctx, runner, "0 2 1 * *", true)
	w.log = logger.Nop()

	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	require.Eventually(t, func() bool { return runner.Calls() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	w := NewWorker(context.Background(), &MockRunner{}, "not a schedule", false)
	w.log = logger.Nop()

	assert.Error(t, w.Start())
}
