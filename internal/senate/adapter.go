// Package senate collects upper-chamber roll calls from the LIS feed.
// The feed is authoritative: one menu document lists every roll call in a
// (congress, session) and one XML document exists per roll.
package senate

import (
	"context"
	"encoding/xml"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/devoid00/creto-votes/internal/dispatcher"
	"github.com/devoid00/creto-votes/internal/fetch"
	"github.com/devoid00/creto-votes/internal/telemetry"
	"github.com/devoid00/creto-votes/internal/votes"
)

const defaultBaseURL = "https://www.senate.gov"

// Config controls adapter behavior.
type Config struct {
	// Concurrency bounds the per-roll detail fetch pool.
	Concurrency int
	// MenuPolicy governs retries on the session menu fetch. The menu is
	// the one document the whole target depends on, so it gets a retry
	// budget while per-roll details degrade instead.
	MenuPolicy fetch.Policy
	// BaseURL overrides the source host, for tests.
	BaseURL string
}

// Adapter fetches and normalizes upper-chamber roll calls.
type Adapter struct {
	client     *fetch.Client
	sink       votes.Sink
	pool       *dispatcher.Pool
	base       string
	menuPolicy fetch.Policy
	logger     *zap.Logger
}

// New builds an Adapter.
func New(client *fetch.Client, sink votes.Sink, cfg Config, logger *zap.Logger) *Adapter {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		client:     client,
		sink:       sink,
		pool:       dispatcher.New(cfg.Concurrency),
		base:       base,
		menuPolicy: cfg.MenuPolicy,
		logger:     logger.Named("senate"),
	}
}

func (a *Adapter) menuURL(congress, session int) string {
	return fmt.Sprintf("%s/legislative/LIS/roll_call_lists/vote_menu_%d_%d.xml", a.base, congress, session)
}

func (a *Adapter) voteURL(congress, session, roll int) string {
	return fmt.Sprintf("%s/legislative/LIS/roll_call_votes/vote%d%d/vote_%d_%d_%05d.xml",
		a.base, congress, session, congress, session, roll)
}

// Collect fetches the session menu, persists the sorted list file, then
// fetches every roll's detail across the worker pool. A failure on one
// roll's detail degrades to "not written" for that roll; the menu list and
// the remaining rolls are unaffected.
func (a *Adapter) Collect(ctx context.Context, t votes.Target) (int, error) {
	menuURL := a.menuURL(t.Congress, t.Session)

	var menu menuXML
	if err := a.client.GetXML(ctx, menuURL, a.menuPolicy, &menu); err != nil {
		return 0, fmt.Errorf("fetch vote menu for %s: %w", t, err)
	}

	rows := a.normalizeMenu(menu, t)
	sort.Slice(rows, func(i, j int) bool { return rows[i].RollCall < rows[j].RollCall })

	if err := a.sink.SaveSummaries(t, rows); err != nil {
		return 0, fmt.Errorf("save list for %s: %w", t, err)
	}

	a.pool.Run(ctx, len(rows), func(ctx context.Context, i int) {
		roll := rows[i].RollCall
		if err := a.collectDetail(ctx, t, roll, menuURL); err != nil {
			a.logger.Warn("roll detail not written",
				zap.Int("congress", t.Congress),
				zap.Int("session", t.Session),
				zap.Int("roll", roll),
				zap.Error(err),
			)
		}
	})

	a.logger.Info("session collected",
		zap.Int("congress", t.Congress),
		zap.Int("session", t.Session),
		zap.Int("rollcalls", len(rows)),
	)
	return len(rows), nil
}

func (a *Adapter) collectDetail(ctx context.Context, t votes.Target, roll int, menuURL string) error {
	voteURL := a.voteURL(t.Congress, t.Session, roll)

	body, err := a.client.Get(ctx, voteURL, nil, fetch.NoRetry())
	if err != nil {
		return err
	}

	detail, err := normalizeDetail(body, t, roll, menuURL, voteURL)
	if err != nil {
		return err
	}
	if err := a.sink.SaveDetail(detail); err != nil {
		return err
	}
	telemetry.ObserveRollCall(string(votes.ChamberSenate))
	return nil
}

// normalizeMenu maps the raw menu rows onto the unified model. Entries
// without a usable roll number are dropped with a warning instead of
// failing the whole session.
func (a *Adapter) normalizeMenu(menu menuXML, t votes.Target) []votes.RollCallSummary {
	rows := make([]votes.RollCallSummary, 0, len(menu.Summaries))
	for _, vs := range menu.Summaries {
		roll := atoi(vs.RollCall)
		if roll <= 0 {
			a.logger.Warn("menu entry without roll number skipped",
				zap.String("raw", vs.RollCall),
				zap.String("question", vs.Question),
			)
			continue
		}
		rows = append(rows, votes.RollCallSummary{
			Congress:   t.Congress,
			Chamber:    votes.ChamberSenate,
			Session:    t.Session,
			RollCall:   roll,
			Date:       coerceDate(vs.Date),
			Result:     vs.Result,
			Question:   vs.Question,
			BillNumber: vs.Issue,
			Title:      vs.Title,
		})
	}
	return rows
}

func normalizeDetail(body []byte, t votes.Target, roll int, menuURL, voteURL string) (votes.RollCallDetail, error) {
	var doc detailXML
	if err := xml.Unmarshal(body, &doc); err != nil {
		return votes.RollCallDetail{}, fmt.Errorf("parse roll %d xml: %w", roll, err)
	}

	members := make([]votes.MemberVote, 0, len(doc.Members))
	for _, m := range doc.Members {
		members = append(members, votes.MemberVote{
			BioguideID:  bioguideFromMemberFull(m.MemberFull),
			LastName:    m.LastName,
			FirstName:   m.FirstName,
			Party:       m.Party,
			State:       m.State,
			Vote:        m.VoteCast,
			LISMemberID: m.LISMemberID,
		})
	}

	meta := doc.Metadata
	return votes.RollCallDetail{
		Key: votes.Key(t.Congress, votes.ChamberSenate, t.Session, roll),
		RollCallSummary: votes.RollCallSummary{
			Congress:   t.Congress,
			Chamber:    votes.ChamberSenate,
			Session:    t.Session,
			RollCall:   roll,
			Date:       coerceDate(meta.Date),
			Result:     meta.Result,
			Question:   meta.Question,
			BillNumber: meta.Issue,
			Title:      meta.Title,
		},
		Totals: votes.VoteTotals{
			Yea:       atoi(meta.Count.Yeas),
			Nay:       atoi(meta.Count.Nays),
			Present:   atoi(meta.Count.Present),
			NotVoting: atoi(meta.Count.NotVoting),
		},
		Members: members,
		Source: map[string]string{
			"menu":     menuURL,
			"vote_xml": voteURL,
		},
	}, nil
}
