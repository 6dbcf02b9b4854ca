// Package metrics provides the terminal's performance monitor: named timed
// regions buffered in memory and periodically flushed as a line-oriented
// batch to a remote collector.
//
//	mon := metrics.New(
//	    metrics.WithCollector("http://localhost:9109/metrics", nil),
//	    metrics.WithInterval(10*time.Second),
//	)
//	defer mon.Stop()
//
//	mon.Start("scan")
//	runScan()
//	mon.End("scan")
//
// The monitor is off the data path: it observes operation durations and
// never blocks store updates. Flush failures re-buffer the batch at the
// front of the queue for the next interval; a configurable cap bounds
// memory under a sustained collector outage.
package metrics
