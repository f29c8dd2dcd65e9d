package scenario

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/parcr/lifeactuary/cache"
	"github.com/parcr/lifeactuary/policy"
)

// Result is one scenario run.
type Result struct {
	RunID    string         `json:"run_id"`
	Name     string         `json:"name"`
	Policies []PolicyResult `json:"policies"`
}

// PolicyResult holds the figures for one policy. Cached marks results that
// were served from a previous run under the same basis.
type PolicyResult struct {
	Label         string         `json:"label"`
	SinglePremium float64        `json:"single_premium"`
	NetPremium    float64        `json:"net_premium"`
	Reserves      []ReservePoint `json:"reserves,omitempty"`
	Cached        bool           `json:"cached,omitempty"`
}

// ReservePoint is one duration of the reserve development.
type ReservePoint struct {
	Duration    int     `json:"duration"`
	Prospective float64 `json:"prospective"`
}

// Runner evaluates scenarios, memoising per-policy results in a cache keyed
// by the mortality and rate basis plus the policy itself.
type Runner struct {
	cache  cache.Cache
	logger *log.Entry
}

// NewRunner builds a runner. A nil cache disables memoisation.
func NewRunner(c cache.Cache) *Runner {
	return &Runner{
		cache:  c,
		logger: log.WithField("component", "scenario"),
	}
}

// Run prices every policy in the scenario.
func (r *Runner) Run(s *Scenario) (*Result, error) {
	calc, err := s.BuildCalculator()
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Name:     s.Name,
		Policies: make([]PolicyResult, 0, len(s.Policies)),
	}
	logger := r.logger.WithFields(log.Fields{"run_id": res.RunID, "scenario": s.Name})
	logger.WithField("policies", len(s.Policies)).Info("scenario run started")

	for _, ps := range s.Policies {
		key, err := fingerprint(s, ps)
		if err != nil {
			return nil, err
		}
		if pr, ok := r.lookup(key); ok {
			pr.Cached = true
			pr.Label = ps.DisplayName()
			res.Policies = append(res.Policies, pr)
			logger.WithField("policy", pr.Label).Debug("served from cache")
			continue
		}

		pr, err := r.evaluate(calc, ps)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: policy %q: %w", s.Name, ps.DisplayName(), err)
		}
		res.Policies = append(res.Policies, pr)
		r.store(key, pr)
		logger.WithFields(log.Fields{
			"policy":      pr.Label,
			"net_premium": pr.NetPremium,
		}).Debug("policy valued")
	}

	logger.Info("scenario run finished")
	return res, nil
}

func (r *Runner) evaluate(calc *policy.Calculator, ps PolicySpec) (PolicyResult, error) {
	p, err := ps.Policy()
	if err != nil {
		return PolicyResult{}, err
	}
	single, err := calc.SinglePremium(p)
	if err != nil {
		return PolicyResult{}, err
	}
	net, err := calc.NetPremium(p)
	if err != nil {
		return PolicyResult{}, err
	}
	pr := PolicyResult{
		Label:         ps.DisplayName(),
		SinglePremium: single,
		NetPremium:    net,
	}
	if ps.Reserves {
		series, err := calc.ReserveSeries(p)
		if err != nil {
			return PolicyResult{}, err
		}
		pr.Reserves = make([]ReservePoint, len(series))
		for i, v := range series {
			pr.Reserves[i] = ReservePoint{Duration: v.Duration, Prospective: v.Prospective}
		}
	}
	return pr, nil
}

func (r *Runner) lookup(key string) (PolicyResult, bool) {
	if r.cache == nil {
		return PolicyResult{}, false
	}
	raw, ok := r.cache.Get(key)
	if !ok {
		return PolicyResult{}, false
	}
	var pr PolicyResult
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		return PolicyResult{}, false
	}
	return pr, true
}

func (r *Runner) store(key string, pr PolicyResult) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(pr)
	if err != nil {
		return
	}
	if err := r.cache.Set(key, string(raw)); err != nil {
		r.logger.WithError(err).Warn("cache write failed")
	}
}

// fingerprint hashes the valuation basis together with one policy, so that
// cache hits survive reordering and relabelling of the policy list.
func fingerprint(s *Scenario, ps PolicySpec) (string, error) {
	ps.Label = ""
	basis := struct {
		Table        TableSpec     `json:"table"`
		Select       *SelectSpec   `json:"select,omitempty"`
		Generational *CohortSpec   `json:"generational,omitempty"`
		Rates        RateSpec      `json:"rates"`
		Valuation    ValuationSpec `json:"valuation"`
		Policy       PolicySpec    `json:"policy"`
	}{s.Table, s.Select, s.Generational, s.Rates, s.Valuation, ps}
	raw, err := json.Marshal(basis)
	if err != nil {
		return "", fmt.Errorf("scenario: fingerprint: %w", err)
	}
	sum := sha256.Sum256(raw)
	return "lifeactuary:policy:" + hex.EncodeToString(sum[:]), nil
}
