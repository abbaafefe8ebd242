// File: client/report.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/momentics/hioload-pagebench/control"
)

// Report is the outcome of one measurement.
type Report struct {
	Bytes       uint64
	Pages       uint64
	Elapsed     time.Duration
	Gbps        float64
	PagesPerSec float64

	FailedReaders int
}

// NewReport derives the rates from a stats snapshot. A zero elapsed time
// yields zero rates.
func NewReport(s control.StatsSnapshot, elapsed time.Duration) Report {
	r := Report{Bytes: s.Bytes, Pages: s.Pages, Elapsed: elapsed}
	if secs := elapsed.Seconds(); secs > 0 {
		r.Gbps = float64(s.Bytes) * 8 / secs / 1e9
		r.PagesPerSec = float64(s.Pages) / secs
	}
	return r
}

// Print writes the report in the console format.
func (r Report) Print(w io.Writer) error {
	perSec := uint64(0)
	if secs := r.Elapsed.Seconds(); secs > 0 {
		perSec = uint64(float64(r.Bytes) / secs)
	}
	_, err := fmt.Fprintf(w,
		"Received %d bytes in %.2f seconds\nThroughput: %.6f Gbps\nPages per second: %.2f\nTransferred %s (%s/s)\n",
		r.Bytes, r.Elapsed.Seconds(), r.Gbps, r.PagesPerSec,
		humanize.IBytes(r.Bytes), humanize.IBytes(perSec))
	return err
}
