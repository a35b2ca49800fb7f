package session

import (
	"fmt"

	"github.com/roach88/ruleflow/internal/reducer"
	"github.com/roach88/ruleflow/internal/ruleflow"
)

// ReplayResult is the outcome of replaying an action log.
type ReplayResult struct {
	Final   *ruleflow.Configuration
	Applied int
	// Diverged lists the seqs whose recomputed hash differs from the
	// recorded ResultHash.
	Diverged []int64
}

// Replay re-applies recorded actions to base in seq order and checks every
// intermediate hash against the log. Stamped ids are honoured, so a faithful
// log reproduces the original document exactly.
func Replay(base *ruleflow.Configuration, records []ruleflow.ActionRecord) (*ReplayResult, error) {
	r := reducer.New(nil)
	res := &ReplayResult{Final: base.Clone()}
	var lastSeq int64
	for _, rec := range records {
		if rec.Seq <= lastSeq {
			return nil, fmt.Errorf("replay: seq %d out of order after %d", rec.Seq, lastSeq)
		}
		lastSeq = rec.Seq

		next, err := r.Apply(res.Final, rec.Action)
		if err != nil {
			return nil, fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		res.Final = next
		res.Applied++
		if rec.ResultHash != "" && ruleflow.MustHash(next) != rec.ResultHash {
			res.Diverged = append(res.Diverged, rec.Seq)
		}
	}
	return res, nil
}
