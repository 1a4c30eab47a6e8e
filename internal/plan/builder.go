// Package plan assembles the final ordered reminder set from ranked
// activation candidates, delegating to the per-session composition
// strategy for every composite candidate.
package plan

import (
	"context"
	"fmt"
	"time"

	"tenet/internal/constraint"
	"tenet/internal/resolve"
	"tenet/internal/trigger"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Defaults for the injection ceiling and the per-candidate resolution
// budget.
const (
	DefaultMaxPerInjection = 3
	DefaultCandidateBudget = 50 * time.Millisecond
)

// Activation is one {constraint id, reminder text} pair of the final
// payload handed back to the transport layer.
type Activation struct {
	ConstraintID string
	Reminder     string
	Reason       trigger.ReasonCode
}

// Skip records a candidate that qualified but could not activate —
// structural defect, policy refusal, or budget overrun. Skips are
// reported, never silently dropped, and never fail the rest of the
// plan.
type Skip struct {
	ConstraintID string
	Reason       string
}

// Plan is the builder's output: the ordered activations plus every
// skipped candidate.
type Plan struct {
	Activations []Activation
	Skipped     []Skip
}

// Config tunes a Builder. Zero values fall back to the defaults.
type Config struct {
	MaxPerInjection int
	CandidateBudget time.Duration
}

// Builder turns ranked candidates into an activation plan.
type Builder struct {
	resolver *resolve.Resolver
	maxPer   int
	budget   time.Duration
}

// NewBuilder creates a Builder over the given resolver.
func NewBuilder(r *resolve.Resolver, cfg Config) *Builder {
	if cfg.MaxPerInjection <= 0 {
		cfg.MaxPerInjection = DefaultMaxPerInjection
	}
	if cfg.CandidateBudget <= 0 {
		cfg.CandidateBudget = DefaultCandidateBudget
	}
	return &Builder{resolver: r, maxPer: cfg.MaxPerInjection, budget: cfg.CandidateBudget}
}

// Build walks the ranked candidates in order and produces the final
// plan. Atomic candidates contribute their reminders directly;
// composite candidates delegate to the session's strategy to pick the
// sub-constraints due right now. The max-per-injection ceiling counts
// candidates, and is enforced even when more qualified. A candidate
// whose resolution exceeds the per-candidate budget is skipped, and the
// plan continues with the remainder.
func (b *Builder) Build(ctx context.Context, candidates []trigger.Candidate, sess *Session) *Plan {
	p := &Plan{}
	activated := 0

	for _, cand := range candidates {
		if activated >= b.maxPer {
			break
		}
		if ctx.Err() != nil {
			// Caller abandoned the call: deliver nothing further.
			break
		}

		start := timeNow()
		res, err := b.resolver.Resolve(ctx, cand.ID)
		if err != nil {
			p.Skipped = append(p.Skipped, Skip{ConstraintID: cand.ID, Reason: err.Error()})
			continue
		}
		if elapsed := timeNow().Sub(start); elapsed > b.budget {
			p.Skipped = append(p.Skipped, Skip{
				ConstraintID: cand.ID,
				Reason:       fmt.Sprintf("resolution took %v, budget is %v", elapsed, b.budget),
			})
			continue
		}

		reason := firstReason(cand)
		switch res.Kind {
		case constraint.KindAtomic:
			for _, line := range res.Atomic.Reminders {
				p.Activations = append(p.Activations, Activation{
					ConstraintID: res.ID,
					Reminder:     line,
					Reason:       reason,
				})
			}
			activated++
		case constraint.KindComposite:
			st, err := sess.Strategy(res.Composite, res)
			if err != nil {
				p.Skipped = append(p.Skipped, Skip{ConstraintID: cand.ID, Reason: err.Error()})
				continue
			}
			decision, err := st.Next()
			if err != nil {
				// Activation-policy refusal: report and keep serving.
				p.Skipped = append(p.Skipped, Skip{ConstraintID: cand.ID, Reason: err.Error()})
				continue
			}
			if len(decision.Steps) == 0 {
				p.Skipped = append(p.Skipped, Skip{ConstraintID: cand.ID, Reason: decision.Reason})
				continue
			}
			for _, step := range decision.Steps {
				for _, line := range step.Reminders {
					p.Activations = append(p.Activations, Activation{
						ConstraintID: step.ConstraintID,
						Reminder:     line,
						Reason:       reason,
					})
				}
			}
			activated++
		}
	}
	return p
}

func firstReason(c trigger.Candidate) trigger.ReasonCode {
	if len(c.Reasons) == 0 {
		return ""
	}
	return c.Reasons[0]
}
