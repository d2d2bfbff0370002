// Package domain resolves research domains to persisted records, tracks the
// current domain of a process and produces the prompt context for it.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HendryAvila/scout/internal/memory"
)

var (
	// ErrConfirmationRequired is returned by DeleteDomain when confirm is false.
	ErrConfirmationRequired = errors.New("domain: must confirm to delete a domain")
	// ErrDomainExists is returned by CreateCustomDomain for a taken name.
	ErrDomainExists = errors.New("domain: already exists")
)

// Candidate is an existing domain offered to the Matcher.
type Candidate struct {
	Name        string
	Description string
}

// Matcher decides whether a custom domain name is equivalent to one of the
// candidates. It returns the candidate name and true on a match.
type Matcher interface {
	FindMatchingDomain(ctx context.Context, custom string, candidates []Candidate) (string, bool, error)
}

// ReuseConfirmer asks the user whether the requested custom domain should
// reuse the existing domain the matcher found. Only an explicit true reuses.
type ReuseConfirmer func(ctx context.Context, requested, existing string) (bool, error)

// Scope is the current domain threaded into memory services and sessions.
// The zero Scope is the unscoped, global view.
type Scope struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// IsZero reports whether the scope selects no domain.
func (s Scope) IsZero() bool { return s.ID == 0 }

// DomainID returns the scope as the nullable id memory services take.
func (s Scope) DomainID() *int64 {
	if s.ID == 0 {
		return nil
	}
	id := s.ID
	return &id
}

// Stats describes one domain for display.
type Stats struct {
	Exists       bool      `json:"exists" yaml:"exists"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords     []string  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	LastUsed     time.Time `json:"last_used,omitempty" yaml:"last_used,omitempty"`
	TopicCount   int       `json:"topic_count" yaml:"topic_count"`
	RecentTopics []string  `json:"recent_topics,omitempty" yaml:"recent_topics,omitempty"`
}

// PromptContext is the domain metadata injected into the reasoning prompt.
type PromptContext struct {
	Domain      string `json:"domain"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	FocusAreas  string `json:"focus_areas"`
}

const recentTopicsLimit = 5

// Manager maps requested domain names to persisted domains and owns the
// current-domain pointer of the process.
type Manager struct {
	store   *memory.Store
	matcher Matcher
	confirm ReuseConfirmer
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	current Scope
}

// Option configures a Manager.
type Option func(*Manager)

// WithMatcher sets the duplicate-domain matcher used for custom names.
func WithMatcher(m Matcher) Option {
	return func(mgr *Manager) { mgr.matcher = m }
}

// WithReuseConfirmer sets the callback asked before reusing a matched domain.
func WithReuseConfirmer(c ReuseConfirmer) Option {
	return func(mgr *Manager) { mgr.confirm = c }
}

// WithLogger sets the manager logger.
func WithLogger(l *zap.Logger) Option {
	return func(mgr *Manager) { mgr.logger = l }
}

// WithClock overrides the clock used for creation and last-used stamps.
func WithClock(now func() time.Time) Option {
	return func(mgr *Manager) { mgr.now = now }
}

// NewManager creates a Manager over store.
func NewManager(store *memory.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Custom is the metadata of a custom domain entered by the user. It is
// applied only when resolution ends up creating the domain.
type Custom struct {
	Name        string
	Description string
	Keywords    []string
}

// Resolution is the outcome of resolving a requested domain.
type Resolution struct {
	Domain *memory.Domain
	// Created is true when no existing domain was used.
	Created bool
}

// Resolve maps name to a persisted domain, creating it when needed.
//
// A preset key resolves to the preset's display name. An existing domain is
// touched and returned. A new custom name is first checked against the
// existing domains with the matcher; a match is reused only when the reuse
// confirmer explicitly agrees. Otherwise a new domain is created.
func (m *Manager) Resolve(ctx context.Context, name string) (*memory.Domain, error) {
	res, err := m.resolve(ctx, Custom{Name: name})
	if err != nil {
		return nil, err
	}
	return res.Domain, nil
}

// ResolveCustom resolves c like Resolve and, when a new domain is created,
// stores c's description and keywords on it.
func (m *Manager) ResolveCustom(ctx context.Context, c Custom) (Resolution, error) {
	return m.resolve(ctx, c)
}

func (m *Manager) resolve(ctx context.Context, c Custom) (Resolution, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return Resolution{}, memory.ErrInvalidDomain
	}

	preset, isPreset := LookupPreset(name)
	actual := name
	if isPreset {
		actual = preset.Name
	}

	d, err := m.touchByName(ctx, actual)
	if err != nil {
		return Resolution{}, err
	}
	if d != nil {
		return Resolution{Domain: d}, nil
	}

	if !isPreset {
		reused, err := m.reuseMatch(ctx, name)
		if err != nil {
			return Resolution{}, err
		}
		if reused != nil {
			return Resolution{Domain: reused}, nil
		}
	}

	params := memory.CreateDomainParams{
		Name:        name,
		Description: strings.TrimSpace(c.Description),
		Keywords:    c.Keywords,
		At:          m.now(),
	}
	if params.Description == "" {
		params.Description = "Custom research domain: " + name
	}
	if params.Keywords == nil {
		params.Keywords = []string{}
	}
	if isPreset {
		params.Name = preset.Name
		params.Description = preset.Description
		params.Keywords = preset.Keywords
	}

	created, err := m.store.CreateDomain(ctx, params)
	if errors.Is(err, memory.ErrDuplicateDomain) {
		// Lost a race with a concurrent creator of the same name.
		d, err := m.touchByName(ctx, params.Name)
		if err == nil && d == nil {
			err = fmt.Errorf("domain: %q vanished after a concurrent create", params.Name)
		}
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Domain: d}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("domain: create %q: %w", params.Name, err)
	}
	m.logger.Info("domain created", zap.String("domain", created.Name), zap.Int64("domain_id", created.ID))
	return Resolution{Domain: created, Created: true}, nil
}

// SetCurrentDomain resolves name and records it as the current domain.
func (m *Manager) SetCurrentDomain(ctx context.Context, name string) (Scope, error) {
	d, err := m.Resolve(ctx, name)
	if err != nil {
		return Scope{}, err
	}
	return m.setCurrent(d), nil
}

// SetCurrentCustomDomain resolves c with ResolveCustom and records the
// result as the current domain.
func (m *Manager) SetCurrentCustomDomain(ctx context.Context, c Custom) (Scope, bool, error) {
	res, err := m.ResolveCustom(ctx, c)
	if err != nil {
		return Scope{}, false, err
	}
	return m.setCurrent(res.Domain), res.Created, nil
}

func (m *Manager) setCurrent(d *memory.Domain) Scope {
	scope := Scope{ID: d.ID, Name: d.Name}

	m.mu.Lock()
	m.current = scope
	m.mu.Unlock()

	m.logger.Info("current domain set", zap.String("domain", scope.Name), zap.Int64("domain_id", scope.ID))
	return scope
}

// Current returns the current domain scope, if one is set.
func (m *Manager) Current() (Scope, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, !m.current.IsZero()
}

// CurrentDomain loads the current domain record. It returns nil when no
// domain is set or the domain has since been deleted.
func (m *Manager) CurrentDomain(ctx context.Context) (*memory.Domain, error) {
	scope, ok := m.Current()
	if !ok {
		return nil, nil
	}
	return m.store.GetDomain(ctx, scope.ID)
}

// ListDomains returns all domains, most recently used first.
func (m *Manager) ListDomains(ctx context.Context) ([]memory.Domain, error) {
	return m.store.ListDomains(ctx)
}

// GetDomainStats describes the domain with exactly that name.
func (m *Manager) GetDomainStats(ctx context.Context, name string) (Stats, error) {
	d, err := m.store.FindDomainByName(ctx, name)
	if err != nil {
		return Stats{}, fmt.Errorf("domain: stats lookup: %w", err)
	}
	if d == nil {
		return Stats{Exists: false, Name: name}, nil
	}

	count, err := m.store.CountTopics(ctx, memory.TopicFilter{DomainID: &d.ID})
	if err != nil {
		return Stats{}, fmt.Errorf("domain: count topics: %w", err)
	}
	recent, err := m.store.RecentTopicNames(ctx, d.ID, recentTopicsLimit)
	if err != nil {
		return Stats{}, fmt.Errorf("domain: recent topics: %w", err)
	}

	return Stats{
		Exists:       true,
		Name:         d.Name,
		Description:  d.Description,
		Keywords:     d.Keywords,
		CreatedAt:    d.CreatedAt,
		LastUsed:     d.LastUsed,
		TopicCount:   count,
		RecentTopics: recent,
	}, nil
}

// DeleteDomain deletes the named domain and all its topics. It refuses with
// ErrConfirmationRequired unless confirm is true, and reports false when no
// such domain exists.
func (m *Manager) DeleteDomain(ctx context.Context, name string, confirm bool) (bool, error) {
	if !confirm {
		return false, ErrConfirmationRequired
	}

	d, err := m.store.FindDomainByName(ctx, name)
	if err != nil {
		return false, fmt.Errorf("domain: delete lookup: %w", err)
	}
	if d == nil {
		return false, nil
	}

	deleted, err := m.store.DeleteDomain(ctx, d.ID)
	if err != nil {
		return false, fmt.Errorf("domain: delete %q: %w", name, err)
	}

	m.mu.Lock()
	if m.current.ID == d.ID {
		m.current = Scope{}
	}
	m.mu.Unlock()

	if deleted {
		m.logger.Info("domain deleted", zap.String("domain", name), zap.Int64("domain_id", d.ID))
	}
	return deleted, nil
}

// CreateCustomDomain creates a domain with explicit metadata.
func (m *Manager) CreateCustomDomain(ctx context.Context, name, description string, keywords []string) (*memory.Domain, error) {
	d, err := m.store.CreateDomain(ctx, memory.CreateDomainParams{
		Name:        strings.TrimSpace(name),
		Description: description,
		Keywords:    keywords,
		At:          m.now(),
	})
	if errors.Is(err, memory.ErrDuplicateDomain) {
		return nil, fmt.Errorf("%w: %q", ErrDomainExists, name)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// PromptContext returns the prompt metadata for name. An empty name means
// the current domain, or DefaultDomainName when none is set. Presets answer
// with their canned text, stored domains with their own metadata, and
// anything else with a generic context.
func (m *Manager) PromptContext(ctx context.Context, name string) (PromptContext, error) {
	if name == "" {
		if scope, ok := m.Current(); ok {
			name = scope.Name
		}
	}
	if name == "" {
		name = DefaultDomainName
	}

	if p, ok := presetByName(name); ok {
		return PromptContext{
			Domain:      p.Name,
			Description: p.Description,
			Keywords:    strings.Join(p.Keywords, ", "),
			FocusAreas:  strings.Join(p.FocusAreas, ", "),
		}, nil
	}

	d, err := m.store.FindDomainByName(ctx, name)
	if err != nil {
		return PromptContext{}, fmt.Errorf("domain: prompt context: %w", err)
	}
	if d != nil {
		desc := d.Description
		if desc == "" {
			desc = "Research domain: " + d.Name
		}
		return PromptContext{
			Domain:      d.Name,
			Description: desc,
			Keywords:    strings.Join(d.Keywords, ", "),
			FocusAreas:  customFocusAreas,
		}, nil
	}

	return PromptContext{
		Domain:      name,
		Description: "Research domain: " + name,
		Keywords:    "",
		FocusAreas:  customFocusAreas,
	}, nil
}

// ─── Internal ────────────────────────────────────────────────────────────────

func (m *Manager) touchByName(ctx context.Context, name string) (*memory.Domain, error) {
	d, err := m.store.FindDomainByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("domain: lookup %q: %w", name, err)
	}
	if d == nil {
		return nil, nil
	}
	touched, err := m.store.TouchDomain(ctx, d.ID, m.now())
	if err != nil {
		return nil, fmt.Errorf("domain: touch %q: %w", name, err)
	}
	return touched, nil
}

// reuseMatch runs duplicate detection for a new custom name. Matcher
// failures are logged and treated as no match.
func (m *Manager) reuseMatch(ctx context.Context, name string) (*memory.Domain, error) {
	if m.matcher == nil {
		return nil, nil
	}
	existing, err := m.store.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("domain: list candidates: %w", err)
	}
	if len(existing) == 0 {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(existing))
	for _, d := range existing {
		candidates = append(candidates, Candidate{Name: d.Name, Description: d.Description})
	}

	match, ok, err := m.matcher.FindMatchingDomain(ctx, name, candidates)
	if err != nil {
		m.logger.Warn("domain matching failed", zap.String("domain", name), zap.Error(err))
		return nil, nil
	}
	if !ok || !isCandidate(match, candidates) {
		return nil, nil
	}

	if m.confirm == nil {
		m.logger.Info("similar domain found, no confirmer registered",
			zap.String("domain", name), zap.String("match", match))
		return nil, nil
	}
	reuse, err := m.confirm(ctx, name, match)
	if err != nil {
		return nil, fmt.Errorf("domain: confirm reuse: %w", err)
	}
	if !reuse {
		return nil, nil
	}
	return m.touchByName(ctx, match)
}

func isCandidate(name string, candidates []Candidate) bool {
	for _, c := range candidates {
		if c.Name == name {
			return true
		}
	}
	return false
}
