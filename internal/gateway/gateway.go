// Package gateway orchestrates admission control for AI-backed operations.
//
// Every operation runs the same state machine: resolve a config snapshot,
// fail fast if the surface is disabled, admit through the global sliding
// window, precheck the monthly cost cap, serve from cache when possible,
// precheck the session budget, invoke the provider, and only after a
// successful result commit budget usage, commit actual cost, and write
// through to the cache. Commits are success-only: no failure path leaves a
// partial commit behind.
//
// The gateway holds no locks across provider invocation. Failures after a
// successful provider call (commit or cache-write errors) are swallowed,
// logged, and counted in anomaly counters rather than surfaced - the user
// already paid for the work.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/salmon302/DSATrain-sub000/internal/cache"
	"github.com/salmon302/DSATrain-sub000/internal/config"
	"github.com/salmon302/DSATrain-sub000/internal/ledger"
	"github.com/salmon302/DSATrain-sub000/internal/problems"
	"github.com/salmon302/DSATrain-sub000/internal/providers"
	"github.com/salmon302/DSATrain-sub000/internal/ratelimit"
)

// defaultSession is used when a request carries no session id.
const defaultSession = "anonymous"

// externalCostEstimateUSD gates the cost-cap precheck for external
// providers. Deliberately above typical actual cost so the cap trips
// early rather than late; the commit uses the provider-reported actual.
const externalCostEstimateUSD = 0.02

// UsageMeta is attached to every successful response, computed after all
// commits so the caller sees post-request state.
type UsageMeta struct {
	// Cached marks responses served from the response cache.
	Cached bool `json:"cached"`

	Provider string `json:"provider"`
	Model    string `json:"model"`

	// CostUSD is the cost committed for this call. Zero for cache hits
	// and free providers.
	CostUSD float64 `json:"cost_usd"`

	// SessionUsage is the session's consumed count per action.
	SessionUsage map[string]int `json:"session_usage"`

	// RateLimit is the bucket's window state.
	RateLimit ratelimit.Status `json:"rate_limit"`

	// Ledger is the monthly spend state.
	Ledger ledger.PeriodStatus `json:"ledger"`
}

// HintRequest asks for tiered hints on one problem.
type HintRequest struct {
	SessionID string            `json:"session_id"`
	ProblemID string            `json:"problem_id"`
	Query     string            `json:"query"`
	Context   map[string]string `json:"context,omitempty"`
}

// HintResponse is the gateway's hint result.
type HintResponse struct {
	Hints []providers.Hint `json:"hints"`
	Usage UsageMeta        `json:"usage"`
}

// ReviewRequest asks for a code review.
type ReviewRequest struct {
	SessionID string   `json:"session_id"`
	ProblemID string   `json:"problem_id,omitempty"`
	Code      string   `json:"code"`
	Rubric    []string `json:"rubric,omitempty"`
}

// ReviewResponse is the gateway's review result.
type ReviewResponse struct {
	Summary  string                    `json:"summary"`
	Comments []providers.ReviewComment `json:"comments"`
	Usage    UsageMeta                 `json:"usage"`
}

// ElaborateRequest asks for practice prompts elaborated from a problem.
type ElaborateRequest struct {
	SessionID string `json:"session_id"`
	ProblemID string `json:"problem_id"`
}

// ElaborateResponse is the gateway's elaboration result.
type ElaborateResponse struct {
	Prompts []string  `json:"prompts"`
	Usage   UsageMeta `json:"usage"`
}

// StatusSnapshot is a read-only view of admission state for one session.
type StatusSnapshot struct {
	Enabled      bool                `json:"enabled"`
	Provider     string              `json:"provider"`
	Model        string              `json:"model"`
	RateLimit    ratelimit.Status    `json:"rate_limit"`
	Ledger       ledger.PeriodStatus `json:"ledger"`
	SessionUsage map[string]int      `json:"session_usage"`
}

// Anomalies counts post-success failures that were swallowed rather than
// surfaced. Nonzero values mean usage accounting has drifted optimistic.
type Anomalies struct {
	BudgetCommitFailures int64 `json:"budget_commit_failures"`
	CostCommitFailures   int64 `json:"cost_commit_failures"`
	CacheWriteFailures   int64 `json:"cache_write_failures"`
}

// Gateway is the admission-control façade.
// Safe for concurrent use; configuration is re-read from the runtime on
// every operation so hot-reloads apply to the next request.
type Gateway struct {
	runtime  config.RuntimeConfig
	limiter  ratelimit.Limiter
	ledger   ledger.Ledger
	cache    cache.Cache
	problems problems.Store

	// prov memoizes provider construction per settings snapshot so the
	// anthropic breaker state survives across requests.
	prov atomic.Pointer[providerSlot]

	budgetCommitFailures atomic.Int64
	costCommitFailures   atomic.Int64
	cacheWriteFailures   atomic.Int64
}

type providerSlot struct {
	settings providers.Settings
	provider providers.Provider
}

// New assembles a gateway from its collaborators.
func New(runtime config.RuntimeConfig, limiter ratelimit.Limiter, led ledger.Ledger, c cache.Cache, store problems.Store) *Gateway {
	return &Gateway{
		runtime:  runtime,
		limiter:  limiter,
		ledger:   led,
		cache:    c,
		problems: store,
	}
}

// provider resolves the provider for a config snapshot, reusing the
// previous instance while the provider-relevant settings are unchanged.
func (g *Gateway) provider(cfg *config.Config) providers.Provider {
	s := providers.Settings{
		Provider:      cfg.AI.Provider,
		Model:         cfg.AI.Model,
		APIKey:        cfg.AI.APIKey,
		BaseURL:       cfg.AI.BaseURL,
		AllowExternal: cfg.AI.AllowExternal,
	}
	if slot := g.prov.Load(); slot != nil && slot.settings == s {
		return slot.provider
	}
	p := providers.Select(s)
	g.prov.Store(&providerSlot{settings: s, provider: p})
	return p
}

// admission is the per-request state threaded through the common phases.
type admission struct {
	cfg      *config.Config
	prov     providers.Provider
	bucket   ratelimit.Key
	session  string
	action   string
	estimate float64
}

// admit runs the phases shared by every operation up to (and including)
// the cost-cap precheck. Budget precheck happens separately because the
// cache lookup sits between them.
func (g *Gateway) admit(ctx context.Context, sessionID, action string) (*admission, *Error) {
	cfg := g.runtime.Get()
	if !cfg.AI.Enabled {
		return nil, errDisabled()
	}

	prov := g.provider(cfg)
	a := &admission{
		cfg:     cfg,
		prov:    prov,
		bucket:  ratelimit.Key{Provider: prov.Name(), Model: prov.Model()},
		session: sessionID,
		action:  action,
	}
	if a.session == "" {
		a.session = defaultSession
	}
	if prov.Name() == providers.NameAnthropic {
		a.estimate = externalCostEstimateUSD
	}

	if err := g.limiter.CheckAndIncrement(ctx, a.bucket); err != nil {
		var exceeded *ratelimit.ExceededError
		if errors.As(err, &exceeded) {
			logger().Debug().
				Str("bucket", a.bucket.String()).
				Dur("retry_after", exceeded.RetryAfter).
				Msg("request rate limited")
			return nil, errRateLimited(exceeded.RetryAfter, err)
		}
		return nil, errInternal("rate limiter failed", err)
	}

	if err := g.ledger.Precheck(ctx, a.estimate); err != nil {
		if errors.Is(err, ledger.ErrCostCapExceeded) {
			logger().Warn().
				Float64("estimate_usd", a.estimate).
				Msg("request rejected by cost cap")
			return nil, errCostCapExceeded(err)
		}
		return nil, errInternal("cost ledger failed", err)
	}

	return a, nil
}

// checkBudget runs the session-budget precheck for an admission.
func (g *Gateway) checkBudget(ctx context.Context, a *admission) *Error {
	limit := a.cfg.AI.Budgets.ForAction(a.action)
	if err := g.limiter.CheckBudget(ctx, a.session, a.action, limit); err != nil {
		if errors.Is(err, ratelimit.ErrBudgetExceeded) {
			return errBudgetExceeded(a.action, err)
		}
		return errInternal("budget check failed", err)
	}
	return nil
}

// commit records budget usage and actual cost after a successful provider
// call. Failures here are counted, not surfaced: the work already happened.
func (g *Gateway) commit(ctx context.Context, a *admission, actualCost float64) {
	if err := g.limiter.CommitUsage(ctx, a.session, a.action); err != nil {
		g.budgetCommitFailures.Add(1)
		logger().Error().Err(err).
			Str("session", a.session).
			Str("action", a.action).
			Msg("budget commit failed after successful provider call")
	}
	if err := g.ledger.Commit(ctx, actualCost); err != nil {
		g.costCommitFailures.Add(1)
		logger().Error().Err(err).
			Float64("cost_usd", actualCost).
			Msg("cost commit failed after successful provider call")
	}
}

// writeThrough stores a successful payload in the response cache.
func (g *Gateway) writeThrough(ctx context.Context, a *admission, key string, payload any) {
	if !a.cfg.AI.Cache.Enabled() {
		return
	}
	data, err := json.Marshal(payload)
	if err == nil {
		err = g.cache.SetWithTTL(ctx, key, data, a.cfg.AI.Cache.TTL())
	}
	if err != nil {
		g.cacheWriteFailures.Add(1)
		logger().Warn().Err(err).Str("key", key).Msg("cache write-through failed")
	}
}

// lookup serves a cached payload if present and fresh.
func (g *Gateway) lookup(ctx context.Context, a *admission, key string, out any) bool {
	if !a.cfg.AI.Cache.Enabled() {
		return false
	}
	data, err := g.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			logger().Warn().Err(err).Str("key", key).Msg("cache lookup failed, treating as miss")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger().Warn().Err(err).Str("key", key).Msg("cached payload unreadable, treating as miss")
		return false
	}
	return true
}

// usage assembles post-commit usage metadata. Metadata is best-effort:
// collaborator read errors degrade to zero values rather than failing a
// request that already succeeded.
func (g *Gateway) usage(ctx context.Context, a *admission, cached bool, cost float64) UsageMeta {
	meta := UsageMeta{
		Cached:   cached,
		Provider: a.prov.Name(),
		Model:    a.prov.Model(),
		CostUSD:  cost,
	}
	if st, err := g.limiter.Status(ctx, a.bucket); err == nil {
		meta.RateLimit = st
	}
	if st, err := g.ledger.Status(ctx); err == nil {
		meta.Ledger = st
	}
	if su, err := g.limiter.SessionUsage(ctx, a.session); err == nil {
		meta.SessionUsage = su
	}
	return meta
}

// getProblem loads the referenced problem, mapping a catalog miss to the
// NotFound kind.
func (g *Gateway) getProblem(ctx context.Context, id string) (*problems.Problem, *Error) {
	p, err := g.problems.Get(ctx, id)
	if err != nil {
		if errors.Is(err, problems.ErrNotFound) {
			return nil, errNotFound(id)
		}
		return nil, errInternal("problem catalog failed", err)
	}
	return p, nil
}

// GenerateHint produces tiered hints for a problem, cached by normalized
// query.
func (g *Gateway) GenerateHint(ctx context.Context, req HintRequest) (*HintResponse, error) {
	a, aerr := g.admit(ctx, req.SessionID, ratelimit.ActionHint)
	if aerr != nil {
		return nil, aerr
	}

	problem, aerr := g.getProblem(ctx, req.ProblemID)
	if aerr != nil {
		return nil, aerr
	}

	key := cache.ResponseKey(a.action, a.prov.Name(), a.prov.Model(), req.ProblemID, req.Query)

	var cachedHints []providers.Hint
	if g.lookup(ctx, a, key, &cachedHints) {
		return &HintResponse{
			Hints: cachedHints,
			Usage: g.usage(ctx, a, true, 0),
		}, nil
	}

	if aerr := g.checkBudget(ctx, a); aerr != nil {
		return nil, aerr
	}

	result, err := a.prov.GenerateHint(ctx, providers.HintRequest{
		Problem: problem,
		Query:   req.Query,
		Context: req.Context,
	})
	if err != nil {
		return nil, errInternal("hint generation failed", err)
	}

	actual := result.Cost.OrElse(a.estimate)
	g.commit(ctx, a, actual)
	g.writeThrough(ctx, a, key, result.Hints)

	return &HintResponse{
		Hints: result.Hints,
		Usage: g.usage(ctx, a, false, actual),
	}, nil
}

// ReviewCode reviews a submission. Reviews are not cached: the same
// session resubmitting the same code usually wants a fresh pass, and code
// payloads make poor cache keys.
func (g *Gateway) ReviewCode(ctx context.Context, req ReviewRequest) (*ReviewResponse, error) {
	a, aerr := g.admit(ctx, req.SessionID, ratelimit.ActionReview)
	if aerr != nil {
		return nil, aerr
	}

	var problem *problems.Problem
	if req.ProblemID != "" {
		if problem, aerr = g.getProblem(ctx, req.ProblemID); aerr != nil {
			return nil, aerr
		}
	}

	if aerr := g.checkBudget(ctx, a); aerr != nil {
		return nil, aerr
	}

	result, err := a.prov.ReviewCode(ctx, providers.ReviewRequest{
		Code:    req.Code,
		Rubric:  req.Rubric,
		Problem: problem,
	})
	if err != nil {
		return nil, errInternal("code review failed", err)
	}

	actual := result.Cost.OrElse(a.estimate)
	g.commit(ctx, a, actual)

	return &ReviewResponse{
		Summary:  result.Summary,
		Comments: result.Comments,
		Usage:    g.usage(ctx, a, false, actual),
	}, nil
}

// ElaboratePrompts expands a problem into practice prompts, cached per
// problem.
func (g *Gateway) ElaboratePrompts(ctx context.Context, req ElaborateRequest) (*ElaborateResponse, error) {
	a, aerr := g.admit(ctx, req.SessionID, ratelimit.ActionElaborate)
	if aerr != nil {
		return nil, aerr
	}

	problem, aerr := g.getProblem(ctx, req.ProblemID)
	if aerr != nil {
		return nil, aerr
	}

	key := cache.ResponseKey(a.action, a.prov.Name(), a.prov.Model(), req.ProblemID, "")

	var cachedPrompts []string
	if g.lookup(ctx, a, key, &cachedPrompts) {
		return &ElaborateResponse{
			Prompts: cachedPrompts,
			Usage:   g.usage(ctx, a, true, 0),
		}, nil
	}

	if aerr := g.checkBudget(ctx, a); aerr != nil {
		return nil, aerr
	}

	result, err := a.prov.ElaboratePrompts(ctx, providers.ElaborateRequest{Problem: problem})
	if err != nil {
		return nil, errInternal("prompt elaboration failed", err)
	}

	actual := result.Cost.OrElse(a.estimate)
	g.commit(ctx, a, actual)
	g.writeThrough(ctx, a, key, result.Prompts)

	return &ElaborateResponse{
		Prompts: result.Prompts,
		Usage:   g.usage(ctx, a, false, actual),
	}, nil
}

// Status returns a read-only snapshot of admission state for one session.
// Available even while the AI surface is disabled.
func (g *Gateway) Status(ctx context.Context, sessionID string) (*StatusSnapshot, error) {
	cfg := g.runtime.Get()
	prov := g.provider(cfg)
	if sessionID == "" {
		sessionID = defaultSession
	}

	snap := &StatusSnapshot{
		Enabled:  cfg.AI.Enabled,
		Provider: prov.Name(),
		Model:    prov.Model(),
	}

	bucket := ratelimit.Key{Provider: prov.Name(), Model: prov.Model()}
	st, err := g.limiter.Status(ctx, bucket)
	if err != nil {
		return nil, errInternal("rate limiter status failed", err)
	}
	snap.RateLimit = st

	ls, err := g.ledger.Status(ctx)
	if err != nil {
		return nil, errInternal("cost ledger status failed", err)
	}
	snap.Ledger = ls

	su, err := g.limiter.SessionUsage(ctx, sessionID)
	if err != nil {
		return nil, errInternal("session usage lookup failed", err)
	}
	snap.SessionUsage = su

	return snap, nil
}

// Reset clears one session's budget counters and, when global is set, all
// window state and the current ledger period. Gated behind the allow_reset
// config flag.
func (g *Gateway) Reset(ctx context.Context, sessionID string, global bool) error {
	cfg := g.runtime.Get()
	if !cfg.AI.AllowReset {
		return newError(KindDisabled, "reset is not allowed by configuration", nil)
	}
	if sessionID == "" && !global {
		return errInvalid("reset requires a session id or global flag")
	}

	if err := g.limiter.Reset(ctx, sessionID, global); err != nil {
		return errInternal("rate limiter reset failed", err)
	}
	if global {
		if err := g.ledger.ResetPeriod(ctx, ""); err != nil {
			return errInternal("ledger reset failed", err)
		}
	}

	logger().Info().
		Str("session", sessionID).
		Bool("global", global).
		Msg("admission state reset")
	return nil
}

// Anomalies returns the swallowed post-success failure counts.
func (g *Gateway) Anomalies() Anomalies {
	return Anomalies{
		BudgetCommitFailures: g.budgetCommitFailures.Load(),
		CostCommitFailures:   g.costCommitFailures.Load(),
		CacheWriteFailures:   g.cacheWriteFailures.Load(),
	}
}
