// Package stats implements the process-wide, monotonic counters tracked by
// the core: total writes, blocked writes, and backups created.
package stats

import (
	"fmt"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

// Counters holds the three process-wide statistics. The zero value is ready
// to use. Under the single-threaded event-dispatch model of the host FUSE
// layer these fields could be plain ints, but since go-fuse dispatches
// request callbacks from a small worker pool by default, all mutation goes
// through sync/atomic so the counters are safe under concurrent writes to
// different paths.
type Counters struct {
	totalWrites    int64
	blockedWrites  int64
	backupsCreated int64
}

// RecordWrite increments total_writes. It should be called exactly once per
// Detector invocation.
func (c *Counters) RecordWrite() {
	atomic.AddInt64(&c.totalWrites, 1)
}

// RecordBlock increments blocked_writes. It should be called exactly once
// per blocked Detector verdict.
func (c *Counters) RecordBlock() {
	atomic.AddInt64(&c.blockedWrites, 1)
}

// RecordBackup increments backups_created. It should be called exactly once
// per successfully completed backup copy.
func (c *Counters) RecordBackup() {
	atomic.AddInt64(&c.backupsCreated, 1)
}

// TotalWrites returns the current total_writes count.
func (c *Counters) TotalWrites() int64 {
	return atomic.LoadInt64(&c.totalWrites)
}

// BlockedWrites returns the current blocked_writes count.
func (c *Counters) BlockedWrites() int64 {
	return atomic.LoadInt64(&c.blockedWrites)
}

// BackupsCreated returns the current backups_created count.
func (c *Counters) BackupsCreated() int64 {
	return atomic.LoadInt64(&c.backupsCreated)
}

// Report renders the three counters as a human-readable summary block for
// the shutdown log.
func (c *Counters) Report() string {
	return fmt.Sprintf(
		"writes: %s total, %s blocked, %s backups created",
		humanize.Comma(c.TotalWrites()),
		humanize.Comma(c.BlockedWrites()),
		humanize.Comma(c.BackupsCreated()),
	)
}
