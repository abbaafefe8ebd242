// Package control
// Author: momentics <momentics@gmail.com>
//
// Run-time plumbing shared by the page server and client:
//   - Stats, the mutex-serialized byte/page aggregator of one run
//   - Metrics, process counters exported in Prometheus text format
//   - Probes, named debug hooks dumped next to the metrics
//   - Config loading from flags, PAGEBENCH_* environment and .env files
//   - leveled logger construction
package control
