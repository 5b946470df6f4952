// Package detector composes the whitelist policy and entropy calculator
// into the two-stage, short-circuit decision that classifies a write buffer
// as allowed or blocked.
package detector

import (
	"github.com/sentinelfs/sentinelfs/pkg/classify"
	"github.com/sentinelfs/sentinelfs/pkg/entropy"
	"github.com/sentinelfs/sentinelfs/pkg/logging"
	"github.com/sentinelfs/sentinelfs/pkg/stats"
	"github.com/sentinelfs/sentinelfs/pkg/whitelist"
)

// Verdict is the detector's allow/block decision.
type Verdict int

const (
	// Allow indicates the write may proceed to the backing store.
	Allow Verdict = iota
	// Block indicates the write must be rejected and rendered to the
	// caller as an I/O error.
	Block
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	if v == Block {
		return "block"
	}
	return "allow"
}

// Decision is the ephemeral, per-call decision record: the whitelist label
// outcome, the entropy value (only meaningful when the buffer was not
// whitelisted), and the final verdict.
type Decision struct {
	Whitelisted bool
	Entropy     float64
	Verdict     Verdict
}

// Detector holds the configuration and collaborators needed to classify a
// write buffer. It is safe for concurrent use: classification is delegated
// to a Handle that is itself safe for concurrent use (see pkg/classify),
// and counters are atomic.
type Detector struct {
	classifier *classify.Handle
	threshold  float64
	counters   *stats.Counters
	logger     *logging.Logger
}

// New constructs a Detector. threshold is the entropy value a buffer must
// exceed (strictly) to be blocked.
func New(classifier *classify.Handle, threshold float64, counters *stats.Counters, logger *logging.Logger) *Detector {
	return &Detector{
		classifier: classifier,
		threshold:  threshold,
		counters:   counters,
		logger:     logger,
	}
}

// Classify runs the two-stage decision over buffer: whitelist short-circuit,
// then entropy-versus-threshold. It increments total_writes on every call
// and blocked_writes when the verdict is Block. The detector is
// non-stateful between calls: every buffer is judged independently, exactly
// as specified.
func (d *Detector) Classify(buffer []byte) Decision {
	d.counters.RecordWrite()

	label := d.classifier.Label(buffer)
	if whitelist.Safe(label, buffer) {
		return Decision{Whitelisted: true, Verdict: Allow}
	}

	h := entropy.Shannon(buffer)
	decision := Decision{Entropy: h}
	if h > d.threshold {
		decision.Verdict = Block
		d.counters.RecordBlock()
		d.logger.Tracef("blocked write: label=%s entropy=%.4f threshold=%.4f", label, h, d.threshold)
	} else {
		decision.Verdict = Allow
		d.logger.Tracef("allowed write: label=%s entropy=%.4f threshold=%.4f", label, h, d.threshold)
	}

	return decision
}
