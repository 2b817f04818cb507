// Package votes defines the chamber-agnostic roll-call model shared across
// the source adapters, the persistence layer, and the orchestrator.
package votes

import (
	"fmt"
	"time"
)

// Chamber identifies one of the two legislative chambers.
type Chamber string

// Chamber values as they appear in keys and file names.
const (
	ChamberHouse  Chamber = "house"
	ChamberSenate Chamber = "senate"
)

// Valid reports whether c is a known chamber.
func (c Chamber) Valid() bool {
	return c == ChamberHouse || c == ChamberSenate
}

// Target identifies one (congress, chamber, session) collection run.
type Target struct {
	Congress int     `json:"congress"`
	Chamber  Chamber `json:"chamber"`
	Session  int     `json:"session"`
}

func (t Target) String() string {
	return fmt.Sprintf("%d-%s-%d", t.Congress, t.Chamber, t.Session)
}

// Key builds the globally unique roll-call identifier. Uniqueness follows
// from rollcall being unique within (congress, chamber, session).
func Key(congress int, chamber Chamber, session, rollcall int) string {
	return fmt.Sprintf("%d-%s-%d-%d", congress, chamber, session, rollcall)
}

// RollCallSummary is one row in a session's list file.
type RollCallSummary struct {
	Congress   int     `json:"congress"`
	Chamber    Chamber `json:"chamber"`
	Session    int     `json:"session"`
	RollCall   int     `json:"rollcall"`
	Date       string  `json:"date"`
	Result     string  `json:"result"`
	Question   string  `json:"question"`
	BillNumber string  `json:"bill_number"`
	Title      string  `json:"title"`
}

// VoteTotals carries the tallies as reported by the source document. They
// are not reconciled against the member list; sources occasionally diverge
// and the divergence is surfaced as-is.
type VoteTotals struct {
	Yea       int `json:"yea"`
	Nay       int `json:"nay"`
	Present   int `json:"present"`
	NotVoting int `json:"nv"`
}

// MemberVote records one legislator's cast vote. The vote string keeps the
// chamber's own vocabulary verbatim.
type MemberVote struct {
	// BioguideID is authoritative for house records. The senate feed does
	// not carry a bioguide id; there it holds the last token of the
	// member_full field, a knowingly unreliable stand-in that must not be
	// used as a cross-reference key.
	BioguideID  string `json:"bioguide_id"`
	LastName    string `json:"last_name"`
	FirstName   string `json:"first_name"`
	Party       string `json:"party"`
	State       string `json:"state"`
	District    string `json:"district,omitempty"`
	Vote        string `json:"vote"`
	LISMemberID string `json:"lis_member_id,omitempty"`
}

// RollCallDetail is the full record for one vote. Members keep source
// document order so repeated runs produce stable output.
type RollCallDetail struct {
	Key string `json:"key"`
	RollCallSummary
	Totals  VoteTotals        `json:"totals"`
	Members []MemberVote      `json:"members"`
	Source  map[string]string `json:"source"`
}

// DatasetEntry summarizes one collected target in the index.
type DatasetEntry struct {
	Congress int     `json:"congress"`
	Chamber  Chamber `json:"chamber"`
	Session  int     `json:"session"`
	Count    int     `json:"count"`
}

// DatasetIndex is the terminal document describing a full collection run.
type DatasetIndex struct {
	GeneratedAt string         `json:"generated_at"`
	Datasets    []DatasetEntry `json:"datasets"`
}

// Sink persists collected documents. Implementations must write each
// document atomically so a concurrent reader never observes a partial file.
type Sink interface {
	SaveSummaries(target Target, rows []RollCallSummary) error
	SaveDetail(detail RollCallDetail) error
	SaveIndex(index DatasetIndex) error
}

// Clock returns the current time (injectable for tests).
type Clock interface {
	Now() time.Time
}
