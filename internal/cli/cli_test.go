package cli

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafkaload/internal/publisher"
	"kafkaload/internal/record"
	"kafkaload/internal/runner"
	"kafkaload/internal/stats"
)

func loadPlan() runner.Plan {
	return runner.Plan{
		RunID: "r1",
		Mode:  runner.ModeLoad,
		Total: 10000,
		Config: runner.Config{
			Count:                10000,
			Rate:                 200,
			DuplicateProbability: 0.1,
			Topic:                "high-volume-topic",
		},
	}
}

func TestConsoleHeader(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "localhost:9092")

	c.Start(loadPlan())

	out := buf.String()
	assert.Contains(t, out, "STARTING LOAD TEST")
	assert.Contains(t, out, "Broker     : localhost:9092")
	assert.Contains(t, out, "Messages   : 10,000")
	assert.Contains(t, out, "Duplicates : 10.0%")
	assert.Contains(t, out, "Pacing     : catchup")
}

func TestConsolePublished(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		event   runner.PublishEvent
		want    string
		absent  string
	}{
		{
			name:   "quiet success",
			event:  runner.PublishEvent{ID: "msg-00000001", Category: record.OrderCreated},
			absent: "Sent",
		},
		{
			name:    "verbose success",
			event:   runner.PublishEvent{ID: "msg-00000001", Category: record.OrderCreated, Ack: publisher.Ack{Partition: 2, Offset: 17}},
			verbose: true,
			want:    "✓ Sent: msg-00000001 | Type: ORDER_CREATED | Partition: 2 | Offset: 17",
		},
		{
			name:  "duplicate",
			event: runner.PublishEvent{ID: "msg-00000001", Duplicate: true},
			want:  "⚠ Sending duplicate: msg-00000001",
		},
		{
			name:  "failure",
			event: runner.PublishEvent{ID: "msg-00000009", Err: errors.Join(publisher.ErrTimeout, errors.New("no ack"))},
			want:  "✗ Error sending msg-00000009",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := NewConsole(&buf, "sim://fast")
			c.Verbose = tt.verbose
			c.Start(loadPlan())
			buf.Reset()

			c.Published(tt.event)

			if tt.want != "" {
				assert.Contains(t, buf.String(), tt.want)
			}
			if tt.absent != "" {
				assert.NotContains(t, buf.String(), tt.absent)
			}
		})
	}
}

func TestConsoleSuiteAlwaysVerbose(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "sim://fast")
	c.Start(runner.Plan{Mode: runner.ModeSuite, Total: 6})
	buf.Reset()

	c.Published(runner.PublishEvent{ID: "msg-test-001", Category: record.OrderCreated, Duplicate: true})

	assert.Contains(t, buf.String(), "✓ Sent: msg-test-001 | Type: ORDER_CREATED")
	assert.Contains(t, buf.String(), "(duplicate)")
	assert.NotContains(t, buf.String(), "Sending duplicate")
}

func TestConsoleCheckpointAndProgress(t *testing.T) {
	snap := stats.Snapshot{Iterations: 1000, Total: 10000, Sent: 990, Failed: 10, Rate: 199.5, Elapsed: 5 * time.Second}

	var buf bytes.Buffer
	c := NewConsole(&buf, "x")
	c.Start(loadPlan())
	buf.Reset()

	c.Checkpoint(snap)
	c.Tick(snap)
	assert.Equal(t, "Progress: 1,000/10,000 messages | Rate: 199.50 msg/s | Elapsed: 5.00s\n", buf.String())

	buf.Reset()
	c.Progress = true
	c.Tick(snap)
	c.Checkpoint(snap)
	assert.Contains(t, buf.String(), " 10% | 1,000/10,000")
	assert.NotContains(t, buf.String(), "Progress:")
}

func TestConsoleResults(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "x")

	c.Finished(runner.Report{
		State:      runner.Interrupted,
		Iterations: 1234,
		Total:      10000,
		Summary: stats.Summary{
			Sent:         1200,
			Failed:       34,
			Duplicated:   120,
			Elapsed:      6170 * time.Millisecond,
			AvgRate:      194.49,
			P99LatencyMs: 12.5,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "INTERRUPTED")
	assert.Contains(t, out, "Attempts       : 1,234/10,000")
	assert.Contains(t, out, "Sent           : 1,200")
	assert.Contains(t, out, "Duplicates     : 120")
	assert.Contains(t, out, "Failures       : 34")
	assert.Contains(t, out, "Average Rate   : 194.49 msg/s")
	assert.Contains(t, out, "P99 : 12.50")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[----]", progressBar(0, 4))
	assert.Equal(t, "[██--]", progressBar(0.5, 4))
	assert.Equal(t, "[████]", progressBar(1.7, 4))
}

func TestRecorderExport(t *testing.T) {
	rec := NewRecorder()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec.Published(runner.PublishEvent{Iteration: 0, At: at, ID: "msg-00000000", Category: record.OrderCreated, Ack: publisher.Ack{Partition: 1, Offset: 5}, Latency: 3 * time.Millisecond})
	rec.Published(runner.PublishEvent{Iteration: 1, At: at, ID: "msg-00000000", Duplicate: true, Err: errors.Join(publisher.ErrBroker, errors.New("rejected"))})
	rec.Finished(runner.Report{RunID: "r1", State: runner.Completed, Summary: stats.Summary{Sent: 1, Failed: 1, Duplicated: 1}})

	prefix := filepath.Join(t.TempDir(), "out")
	require.NoError(t, rec.Export(prefix))

	f, err := os.Open(prefix + ".csv")
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "messageId", rows[0][3])
	assert.Equal(t, []string{"1704067200000", "3", "0", "msg-00000000", "ORDER_CREATED", "false", "true", "", "", "1", "5"}, rows[1])
	assert.Equal(t, "broker_error", rows[2][8])

	var results []Result
	data, err := os.ReadFile(prefix + ".json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &results))
	assert.Len(t, results, 2)
	assert.True(t, results[1].Duplicate)

	data, err = os.ReadFile(prefix + "_summary.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state": "completed"`)
	assert.Contains(t, string(data), `"run_id": "r1"`)
}
