package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafkaload/internal/publisher"
	"kafkaload/internal/runner"
	"kafkaload/internal/stats"
)

func TestObserverCounts(t *testing.T) {
	o := New()

	o.Start(runner.Plan{Config: runner.Config{Rate: 250}})
	o.Published(runner.PublishEvent{ID: "a", Latency: 2 * time.Millisecond})
	o.Published(runner.PublishEvent{ID: "a", Duplicate: true, Latency: 3 * time.Millisecond})
	o.Published(runner.PublishEvent{ID: "b", Err: errors.Join(publisher.ErrTimeout, errors.New("late"))})
	o.Published(runner.PublishEvent{ID: "a", Duplicate: true, Err: errors.Join(publisher.ErrBroker, errors.New("nope"))})

	assert.Equal(t, 2.0, testutil.ToFloat64(o.sent))
	assert.Equal(t, 2.0, testutil.ToFloat64(o.duplicated))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.failed.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.failed.WithLabelValues("broker_error")))
	assert.Equal(t, 250.0, testutil.ToFloat64(o.target))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.running))
	assert.Equal(t, 1, testutil.CollectAndCount(o.latency))
}

func TestObserverProgress(t *testing.T) {
	o := New()

	o.Tick(stats.Snapshot{Iterations: 10, Rate: 99.5})
	assert.Equal(t, 10.0, testutil.ToFloat64(o.progress))
	assert.Equal(t, 99.5, testutil.ToFloat64(o.rate))

	o.Finished(runner.Report{Iterations: 20, Summary: stats.Summary{AvgRate: 100}})
	assert.Equal(t, 20.0, testutil.ToFloat64(o.progress))
	assert.Equal(t, 100.0, testutil.ToFloat64(o.rate))
	assert.Equal(t, 0.0, testutil.ToFloat64(o.running))
}

func TestHandler(t *testing.T) {
	o := New()
	o.Published(runner.PublishEvent{ID: "a"})

	rec := httptest.NewRecorder()
	o.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "kafkaload_messages_sent_total 1")
	assert.Contains(t, string(body), "kafkaload_publish_latency_seconds_bucket")
}
