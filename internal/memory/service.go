package memory

import (
	"context"
	"fmt"
	"time"
)

// DefaultNoveltyDays is the recency window used by novelty checks and stats.
const DefaultNoveltyDays = 7

const (
	defaultSearchLimit = 10
	defaultListLimit   = 100
)

// timeNow is a package-level var so tests can control the clock.
var timeNow = time.Now

// Stats holds aggregate memory statistics for one service scope.
type Stats struct {
	TotalTopics     int    `json:"total_topics"`
	RecentTopics    int    `json:"recent_topics_7days"`
	StorageLocation string `json:"database_url"`
}

// SearchOptions holds the caller-facing search filters. The domain filter
// comes from the service scope.
type SearchOptions struct {
	Query  string
	Tags   []string
	Limit  int
	Offset int
}

// TopicUpdate holds a partial topic update. Nil fields stay unchanged.
type TopicUpdate struct {
	Summary           *string
	Sources           []string
	Tags              []string
	BumpLastMentioned bool
}

// Service exposes the business-level memory operations. Its domain scope is
// fixed at construction: with a domain every query is filtered to it,
// without one the service sees the global (legacy) view.
type Service struct {
	store    *Store
	domainID *int64
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used to stamp and age topics.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over store, scoped to domainID when non-nil.
func NewService(store *Store, domainID *int64, opts ...ServiceOption) *Service {
	s := &Service{store: store, now: timeNow}
	if domainID != nil {
		id := *domainID
		s.domainID = &id
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DomainID returns the scope the service was built with.
func (s *Service) DomainID() (int64, bool) {
	if s.domainID == nil {
		return 0, false
	}
	return *s.domainID, true
}

// Now returns the service clock's current time in UTC.
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// StoreTopic records a new topic stamped with the service domain and the
// current time. It does not deduplicate; novelty is the caller's decision.
func (s *Service) StoreTopic(ctx context.Context, name, summary string, sources, tags []string) (*Topic, error) {
	t, err := s.store.CreateTopic(ctx, CreateTopicParams{
		Name:     name,
		DomainID: s.domainID,
		Summary:  summary,
		Sources:  sources,
		Tags:     tags,
		At:       s.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("memory: store topic: %w", err)
	}
	return t, nil
}

// GetTopicByID returns a topic by ID, or nil when absent.
func (s *Service) GetTopicByID(ctx context.Context, id int64) (*Topic, error) {
	return s.store.GetTopic(ctx, id)
}

// GetTopicByName resolves a topic by exact or fuzzy name within the scope.
func (s *Service) GetTopicByName(ctx context.Context, name string, exact bool) (*Topic, error) {
	return s.store.FindTopicByName(ctx, name, exact, s.domainID)
}

// SearchTopics searches topics within the scope. A zero limit defaults to 10.
func (s *Service) SearchTopics(ctx context.Context, opts SearchOptions) ([]Topic, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.store.SearchTopics(ctx, SearchParams{
		Query:    opts.Query,
		DomainID: s.domainID,
		Tags:     opts.Tags,
		Limit:    limit,
		Offset:   opts.Offset,
	})
}

// GetAllTopics lists topics in the scope, most recently mentioned first.
func (s *Service) GetAllTopics(ctx context.Context, limit, offset int) ([]Topic, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.SearchTopics(ctx, SearchParams{DomainID: s.domainID, Limit: limit, Offset: offset})
}

// UpdateTopic applies a partial update. It returns nil when id is unknown.
func (s *Service) UpdateTopic(ctx context.Context, id int64, u TopicUpdate) (*Topic, error) {
	p := UpdateTopicParams{
		Summary: u.Summary,
		Sources: u.Sources,
		Tags:    u.Tags,
	}
	if u.BumpLastMentioned {
		now := s.Now()
		p.LastMentioned = &now
	}
	return s.store.UpdateTopic(ctx, id, p)
}

// MarkAsMentioned refreshes a topic's last-mentioned time.
func (s *Service) MarkAsMentioned(ctx context.Context, id int64) (*Topic, error) {
	return s.UpdateTopic(ctx, id, TopicUpdate{BumpLastMentioned: true})
}

// DeleteTopic removes a topic and reports whether it existed.
func (s *Service) DeleteTopic(ctx context.Context, id int64) (bool, error) {
	return s.store.DeleteTopic(ctx, id)
}

// CheckIfExists reports whether a topic with that name is in scope.
func (s *Service) CheckIfExists(ctx context.Context, name string, fuzzy bool) (bool, error) {
	t, err := s.GetTopicByName(ctx, name, !fuzzy)
	if err != nil {
		return false, err
	}
	return t != nil, nil
}

// IsNovel reports whether a topic is worth reporting: it is novel when no
// fuzzy match exists or when more than daysThreshold whole days have passed
// since the match was last mentioned.
func (s *Service) IsNovel(ctx context.Context, name string, daysThreshold int) (bool, error) {
	t, err := s.GetTopicByName(ctx, name, false)
	if err != nil {
		return false, fmt.Errorf("memory: novelty lookup: %w", err)
	}
	if t == nil {
		return true, nil
	}
	return DaysSince(s.Now(), t.LastMentioned) > daysThreshold, nil
}

// Stats returns topic totals for the scope and the storage location.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, err := s.store.CountTopics(ctx, TopicFilter{DomainID: s.domainID})
	if err != nil {
		return Stats{}, err
	}
	since := s.Now().AddDate(0, 0, -DefaultNoveltyDays)
	recent, err := s.store.CountTopics(ctx, TopicFilter{DomainID: s.domainID, MentionedSince: &since})
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalTopics:     total,
		RecentTopics:    recent,
		StorageLocation: s.store.Location(),
	}, nil
}

// DaysSince returns the whole 24-hour periods elapsed from t to now.
// Partial days are dropped, never rounded up.
func DaysSince(now, t time.Time) int {
	return int(now.Sub(t) / (24 * time.Hour))
}
