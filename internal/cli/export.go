package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"kafkaload/internal/publisher"
	"kafkaload/internal/runner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result is one publish attempt as written to the export files.
type Result struct {
	Iteration int           `json:"iteration"`
	TimeStamp time.Time     `json:"timestamp"`
	ID        string        `json:"message_id"`
	Category  string        `json:"event_type"`
	Duplicate bool          `json:"duplicate"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Partition int32         `json:"partition"`
	Offset    int64         `json:"offset"`
	Latency   time.Duration `json:"latency"`
}

// Recorder keeps every publish attempt and the final report in memory for
// export.
type Recorder struct {
	runner.NopObserver

	Results []Result
	Report  *runner.Report
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Published(e runner.PublishEvent) {
	res := Result{
		Iteration: e.Iteration,
		TimeStamp: e.At,
		ID:        e.ID,
		Category:  string(e.Category),
		Duplicate: e.Duplicate,
		Success:   e.Err == nil,
		Partition: e.Ack.Partition,
		Offset:    e.Ack.Offset,
		Latency:   e.Latency,
	}
	if e.Err != nil {
		res.Error = e.Err.Error()
		res.ErrorKind = publisher.Kind(e.Err)
	}
	r.Results = append(r.Results, res)
}

func (r *Recorder) Finished(rep runner.Report) {
	r.Report = &rep
}

// Export writes prefix.csv, prefix.json and prefix_summary.json.
func (r *Recorder) Export(prefix string) error {
	if err := ExportCSV(r.Results, prefix+".csv"); err != nil {
		return err
	}
	if err := ExportJSON(r.Results, prefix+".json"); err != nil {
		return err
	}
	if r.Report != nil {
		return ExportSummary(*r.Report, prefix+"_summary.json")
	}
	return nil
}

// ExportCSV writes one row per publish attempt.
func ExportCSV(results []Result, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"timeStamp", "elapsed", "iteration", "messageId", "eventType",
		"duplicate", "success", "failureMessage", "failureKind", "partition", "offset",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, res := range results {
		row := []string{
			strconv.FormatInt(res.TimeStamp.UnixMilli(), 10),
			strconv.FormatInt(res.Latency.Milliseconds(), 10),
			strconv.Itoa(res.Iteration),
			res.ID,
			res.Category,
			strconv.FormatBool(res.Duplicate),
			strconv.FormatBool(res.Success),
			res.Error,
			res.ErrorKind,
			strconv.FormatInt(int64(res.Partition), 10),
			strconv.FormatInt(res.Offset, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// ExportJSON writes every publish attempt as a JSON array.
func ExportJSON(results []Result, filename string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ExportSummary writes the final report.
func ExportSummary(rep runner.Report, filename string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
