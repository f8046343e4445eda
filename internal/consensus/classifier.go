// Package consensus aggregates significance opinions from independent
// oracles into a single voted-on tier.
package consensus

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dateradar/pricing-cli/internal/model"
)

// defaultVoteConfidence is assumed when an oracle omits the field.
const defaultVoteConfidence = 0.7

// Request identifies the item/event pair being classified.
type Request struct {
	ItemLabel string
	Category  string
	EventName string
	EventDate string
}

// Opinion is an oracle's raw answer before validation.
type Opinion struct {
	Tier       string
	Confidence *float64
	Rationale  string
}

// Oracle is one advisory significance source. Implementations wrap
// language-model APIs; any of them may time out or fail, and the
// classifier treats that as a missing vote, never an error.
type Oracle interface {
	Name() string
	ClassifyTier(ctx context.Context, req Request) (*Opinion, error)
}

// Classifier fans a classification request out to all configured oracles
// and gathers their votes.
type Classifier struct {
	oracles []Oracle
	timeout time.Duration
}

// New creates a classifier over the given oracles. Each oracle call gets
// an independent timeout.
func New(oracles []Oracle, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Classifier{oracles: oracles, timeout: timeout}
}

// Classify invokes every oracle concurrently and aggregates the resulting
// votes. Oracle failures, timeouts, and unrecognized tier strings are
// dropped from voting. With zero usable votes the documented MEDIUM
// fallback is returned; Classify never fails.
func (c *Classifier) Classify(ctx context.Context, req Request) model.Consensus {
	votes := make([]*model.TierVote, len(c.oracles))

	g := new(errgroup.Group)
	if len(c.oracles) > 0 {
		g.SetLimit(len(c.oracles))
	}

	for i, o := range c.oracles {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			op, err := o.ClassifyTier(callCtx, req)
			if err != nil {
				zap.L().Warn("consensus: oracle call failed",
					zap.String("oracle", o.Name()),
					zap.String("item", req.ItemLabel),
					zap.Error(err),
				)
				return nil
			}

			tier, ok := model.ParseTier(op.Tier)
			if !ok {
				zap.L().Warn("consensus: oracle returned unknown tier",
					zap.String("oracle", o.Name()),
					zap.String("tier", op.Tier),
				)
				return nil
			}

			conf := defaultVoteConfidence
			if op.Confidence != nil {
				conf = *op.Confidence
			}

			votes[i] = &model.TierVote{
				Source:     o.Name(),
				Tier:       tier,
				Confidence: conf,
				Rationale:  op.Rationale,
			}
			return nil
		})
	}
	_ = g.Wait()

	var gathered []model.TierVote
	for _, v := range votes {
		if v != nil {
			gathered = append(gathered, *v)
		}
	}
	return Tally(gathered)
}

// Tally aggregates votes into a Consensus: plurality wins, ties break
// toward higher severity (overpricing a window is judged safer than
// underpricing it).
func Tally(votes []model.TierVote) model.Consensus {
	if len(votes) == 0 {
		return model.FallbackConsensus()
	}

	counts := make(map[model.Tier]int)
	confs := make(map[model.Tier][]float64)
	var rationales []string

	for _, v := range votes {
		counts[v.Tier]++
		confs[v.Tier] = append(confs[v.Tier], v.Confidence)
		if v.Rationale != "" {
			rationales = append(rationales, v.Source+": "+v.Rationale)
		}
	}

	tiers := make([]model.Tier, 0, len(counts))
	for t := range counts {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool {
		if counts[tiers[i]] != counts[tiers[j]] {
			return counts[tiers[i]] > counts[tiers[j]]
		}
		return tiers[i].Severity() > tiers[j].Severity()
	})
	winner := tiers[0]

	var sum float64
	for _, c := range confs[winner] {
		sum += c
	}

	return model.Consensus{
		Tier:        winner,
		Confidence:  sum / float64(len(confs[winner])),
		HasMajority: counts[winner] >= 2,
		Votes:       counts,
		Rationales:  rationales,
		OracleCount: len(votes),
	}
}
