package scanner

import (
	"ScanCheckout/internal/entity"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// AcceptThreshold is exclusive: a probability of exactly 0.8 is rejected.
const AcceptThreshold = 0.8

func Accepts(probability float64) bool {
	return probability > AcceptThreshold
}

type AcceptPolicy string

const (
	// PolicyAll accepts every entry above the threshold in one pass.
	PolicyAll AcceptPolicy = "all"
	// PolicyBest accepts only the highest scoring known entry of a pass.
	PolicyBest AcceptPolicy = "best"
)

func ParseAcceptPolicy(s string) (AcceptPolicy, error) {
	switch AcceptPolicy(s) {
	case "", PolicyAll:
		return PolicyAll, nil
	case PolicyBest:
		return PolicyBest, nil
	default:
		return "", fmt.Errorf("unknown accept policy %q", s)
	}
}

// Lookup resolves a classifier label to a catalog item.
type Lookup interface {
	Lookup(name string) (entity.CatalogItem, bool)
}

type Match struct {
	Item        entity.CatalogItem
	Probability float64
}

// Gate turns classification results into recognitions. It is driven by a
// single loop goroutine and is not safe for concurrent use.
type Gate struct {
	catalog  Lookup
	cooldown time.Duration
	policy   AcceptPolicy
	log      *logrus.Entry

	lastAccept  time.Time
	hasAccepted bool
}

func NewGate(catalog Lookup, cooldown time.Duration, policy AcceptPolicy, log *logrus.Entry) *Gate {
	if policy == "" {
		policy = PolicyAll
	}
	return &Gate{
		catalog:  catalog,
		cooldown: cooldown,
		policy:   policy,
		log:      log,
	}
}

// Ready reports whether now is outside the cooldown of the last accept.
func (g *Gate) Ready(now time.Time) bool {
	if !g.hasAccepted || g.cooldown <= 0 {
		return true
	}
	return now.Sub(g.lastAccept) >= g.cooldown
}

// Evaluate returns the catalog items recognized in result. now is the time
// the tick started; when anything matches it becomes the new cooldown origin.
func (g *Gate) Evaluate(now time.Time, result entity.ClassificationResult) []Match {
	if !g.Ready(now) {
		return nil
	}

	var matches []Match
	for _, p := range result {
		if !Accepts(p.Probability) {
			continue
		}

		item, ok := g.catalog.Lookup(p.Label)
		if !ok {
			g.log.WithFields(logrus.Fields{
				"label":       p.Label,
				"probability": p.Probability,
			}).Debug("[scanner.Gate] accepted label has no catalog entry")
			continue
		}

		matches = append(matches, Match{Item: item, Probability: p.Probability})
	}

	if len(matches) == 0 {
		return nil
	}

	if g.policy == PolicyBest && len(matches) > 1 {
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Probability > matches[j].Probability
		})
		matches = matches[:1]
	}

	g.lastAccept = now
	g.hasAccepted = true
	return matches
}
