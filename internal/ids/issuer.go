// Package ids hands out the claim identifiers shared by every concurrent export task.
package ids

import "sync/atomic"

// Counter is a process-lifetime identifier source that counts down. Values are
// never reused; a value taken for an encounter that is later dropped is lost.
type Counter struct {
	next atomic.Int64
}

// NewCounter returns a Counter whose first value is start.
func NewCounter(start int64) *Counter {
	c := &Counter{}
	c.next.Store(start)
	return c
}

// Next returns the current value and moves the counter one lower.
func (c *Counter) Next() int64 {
	return c.next.Add(-1) + 1
}

// Peek returns the value the next call to Next will return.
func (c *Counter) Peek() int64 {
	return c.next.Load()
}

// Start holds the first value of each counter.
type Start struct {
	ClaimID      int64 `yaml:"claim_id_start"`
	ClaimGroupID int64 `yaml:"claim_group_id_start"`
	FIDocID      int64 `yaml:"fi_doc_cntl_num_start"`
}

// DefaultStart begins every counter at -1, keeping synthetic ids disjoint from
// real (positive) ones.
var DefaultStart = Start{ClaimID: -1, ClaimGroupID: -1, FIDocID: -1}

// ClaimIDs is the identifier triple allocated for one claim.
type ClaimIDs struct {
	ClaimID      int64
	ClaimGroupID int64
	FIDocID      int64
}

// Issuer owns the claim, claim group and FI document control number counters.
type Issuer struct {
	claim      *Counter
	claimGroup *Counter
	fiDoc      *Counter
}

// NewIssuer creates an Issuer starting at s.
func NewIssuer(s Start) *Issuer {
	return &Issuer{
		claim:      NewCounter(s.ClaimID),
		claimGroup: NewCounter(s.ClaimGroupID),
		fiDoc:      NewCounter(s.FIDocID),
	}
}

// Next allocates one value from each counter. The three counters are
// independent; concurrent callers may interleave between them.
func (i *Issuer) Next() ClaimIDs {
	return ClaimIDs{
		ClaimID:      i.claim.Next(),
		ClaimGroupID: i.claimGroup.Next(),
		FIDocID:      i.fiDoc.Next(),
	}
}

// Remaining reports the next values without consuming them.
func (i *Issuer) Remaining() Start {
	return Start{
		ClaimID:      i.claim.Peek(),
		ClaimGroupID: i.claimGroup.Peek(),
		FIDocID:      i.fiDoc.Peek(),
	}
}
