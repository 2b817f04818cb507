// Package house collects lower-chamber roll calls from the Clerk's EVS
// documents. The Clerk publishes no menu, so the adapter discovers the
// valid roll range by probing numbers sequentially from 1 and treating a
// long run of consecutive 404s as the end of the session.
package house

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/devoid00/creto-votes/internal/fetch"
	"github.com/devoid00/creto-votes/internal/telemetry"
	"github.com/devoid00/creto-votes/internal/votes"
)

const defaultBaseURL = "https://clerk.house.gov"

// Config controls the probe heuristic.
type Config struct {
	// MissStreak is the consecutive-404 run that ends enumeration once
	// something has been found.
	MissStreak int
	// MaxProbe is the absolute probe ceiling per session.
	MaxProbe int
	// PaceEvery inserts a pause after this many probes; 0 disables pacing.
	PaceEvery int
	// PaceDelay is how long each pacing pause lasts.
	PaceDelay time.Duration
	// BaseURL overrides the source host, for tests.
	BaseURL string
}

// Adapter fetches and normalizes lower-chamber roll calls.
type Adapter struct {
	client *fetch.Client
	sink   votes.Sink
	cfg    Config
	logger *zap.Logger
}

// New builds an Adapter.
func New(client *fetch.Client, sink votes.Sink, cfg Config, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		client: client,
		sink:   sink,
		cfg:    cfg,
		logger: logger.Named("house"),
	}
}

// yearFor maps (congress, session) to the calendar year the Clerk files
// votes under. Congresses run two years; the 1st convened in 1789.
func yearFor(congress, session int) int {
	return 1789 + (congress-1)*2 + (session - 1)
}

func (a *Adapter) rollURL(year, roll int) string {
	return fmt.Sprintf("%s/evs/%d/roll%03d.xml", a.cfg.BaseURL, year, roll)
}

// Collect probes roll numbers sequentially until the miss-streak
// heuristic or the probe ceiling ends the scan. Probing cannot be
// parallelized: each step's termination decision depends on the streak
// built by the steps before it. Details are persisted as soon as they
// parse; the sorted list file is written once the scan terminates.
func (a *Adapter) Collect(ctx context.Context, t votes.Target) (int, error) {
	year := yearFor(t.Congress, t.Session)
	found := make([]votes.RollCallSummary, 0, 64)
	st := newProbeState()

	for {
		if ctx.Err() != nil {
			// Persist what the scan discovered before the cancel.
			break
		}

		o := a.probe(ctx, t, year, st.roll, &found)

		var reason stopReason
		st, reason = st.next(o, a.cfg.MissStreak, a.cfg.MaxProbe)
		if reason != stopNone {
			telemetry.ObserveProbeStop(string(reason))
			a.logger.Info("enumeration finished",
				zap.Int("congress", t.Congress),
				zap.Int("session", t.Session),
				zap.String("reason", string(reason)),
				zap.Int("probes", st.probes),
				zap.Int("found", st.found),
				zap.Int("miss_streak", st.misses),
			)
			break
		}

		if a.cfg.PaceEvery > 0 && st.probes%a.cfg.PaceEvery == 0 {
			fetch.Pause(ctx, a.cfg.PaceDelay)
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].RollCall < found[j].RollCall })
	if err := a.sink.SaveSummaries(t, found); err != nil {
		return 0, fmt.Errorf("save list for %s: %w", t, err)
	}
	return len(found), nil
}

// probe fetches one candidate roll and classifies the result. Any fetch
// failure other than a parse error counts as a miss; retrying is left to
// the streak heuristic rather than the client.
func (a *Adapter) probe(ctx context.Context, t votes.Target, year, roll int, found *[]votes.RollCallSummary) outcome {
	url := a.rollURL(year, roll)

	body, err := a.client.Get(ctx, url, nil, fetch.NoRetry())
	switch {
	case err == nil:
	case errors.Is(err, fetch.ErrNotFound):
		telemetry.ObserveProbe("miss")
		return outcomeMiss
	default:
		telemetry.ObserveProbe("miss")
		a.logger.Debug("probe failed, counted as miss",
			zap.Int("roll", roll),
			zap.Error(err),
		)
		return outcomeMiss
	}

	detail, err := normalizeDetail(body, t, roll, url)
	if err != nil {
		telemetry.ObserveProbe("skip")
		a.logger.Warn("found document failed to parse, roll skipped",
			zap.Int("roll", roll),
			zap.Error(err),
		)
		return outcomeSkip
	}
	if err := a.sink.SaveDetail(detail); err != nil {
		telemetry.ObserveProbe("skip")
		a.logger.Warn("found document not persisted, roll skipped",
			zap.Int("roll", roll),
			zap.Error(err),
		)
		return outcomeSkip
	}

	telemetry.ObserveProbe("found")
	telemetry.ObserveRollCall(string(votes.ChamberHouse))
	*found = append(*found, detail.RollCallSummary)
	return outcomeFound
}

func normalizeDetail(body []byte, t votes.Target, roll int, voteURL string) (votes.RollCallDetail, error) {
	var doc rollcallXML
	if err := xml.Unmarshal(body, &doc); err != nil {
		return votes.RollCallDetail{}, fmt.Errorf("parse roll %d xml: %w", roll, err)
	}

	members := make([]votes.MemberVote, 0, len(doc.Recorded))
	for _, rv := range doc.Recorded {
		members = append(members, votes.MemberVote{
			BioguideID: rv.Legislator.NameID,
			LastName:   rv.Legislator.lastName(),
			FirstName:  rv.Legislator.First,
			Party:      rv.Legislator.Party,
			State:      rv.Legislator.State,
			District:   rv.Legislator.District,
			Vote:       rv.Vote,
		})
	}

	meta := doc.Metadata
	title := meta.Desc
	if title == "" {
		title = meta.Question
	}
	return votes.RollCallDetail{
		Key: votes.Key(t.Congress, votes.ChamberHouse, t.Session, roll),
		RollCallSummary: votes.RollCallSummary{
			Congress:   t.Congress,
			Chamber:    votes.ChamberHouse,
			Session:    t.Session,
			RollCall:   roll,
			Date:       meta.Date,
			Result:     meta.Result,
			Question:   meta.Question,
			BillNumber: meta.LegisNum,
			Title:      title,
		},
		Totals: votes.VoteTotals{
			Yea:       atoi(meta.Yea),
			Nay:       atoi(meta.Nay),
			Present:   atoi(meta.Present),
			NotVoting: atoi(meta.NotVoting),
		},
		Members: members,
		Source:  map[string]string{"vote_xml": voteURL},
	}, nil
}
