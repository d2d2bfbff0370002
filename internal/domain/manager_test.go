package domain

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/scout/internal/memory"
)

type stubMatcher struct {
	match string
	ok    bool
	err   error
	calls int
	seen  []Candidate
}

func (s *stubMatcher) FindMatchingDomain(_ context.Context, _ string, candidates []Candidate) (string, bool, error) {
	s.calls++
	s.seen = candidates
	return s.match, s.ok, s.err
}

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.New(memory.Config{Path: filepath.Join(t.TempDir(), "memory.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestResolve_PresetTwiceReusesRow(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)
	ctx := context.Background()

	first, err := m.Resolve(ctx, "ai-ml")
	require.NoError(t, err)
	assert.Equal(t, "AI/ML", first.Name)
	assert.Equal(t, "Artificial Intelligence and Machine Learning development", first.Description)
	assert.Contains(t, first.Keywords, "vector databases")

	second, err := m.Resolve(ctx, "AI-ML")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.LastUsed.After(first.LastUsed), "last_used must strictly increase")

	domains, err := m.ListDomains(ctx)
	require.NoError(t, err)
	assert.Len(t, domains, 1)
}

func TestResolve_CustomCreatesWithDefaultDescription(t *testing.T) {
	m := NewManager(newTestStore(t))

	d, err := m.Resolve(context.Background(), "Robotics")
	require.NoError(t, err)
	assert.Equal(t, "Robotics", d.Name)
	assert.Equal(t, "Custom research domain: Robotics", d.Description)
	assert.Empty(t, d.Keywords)
}

func TestResolve_EmptyName(t *testing.T) {
	m := NewManager(newTestStore(t))
	_, err := m.Resolve(context.Background(), "  ")
	assert.ErrorIs(t, err, memory.ErrInvalidDomain)
}

func TestResolve_MatchAcceptedWhenConfirmed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	matcher := &stubMatcher{match: "AI/ML", ok: true}
	var asked []string
	m := NewManager(store,
		WithMatcher(matcher),
		WithReuseConfirmer(func(_ context.Context, requested, existing string) (bool, error) {
			asked = append(asked, requested+"->"+existing)
			return true, nil
		}),
	)

	aiml, err := m.Resolve(ctx, "ai-ml")
	require.NoError(t, err)
	assert.Zero(t, matcher.calls, "presets never consult the matcher")

	got, err := m.Resolve(ctx, "Machine learning frameworks")
	require.NoError(t, err)
	assert.Equal(t, aiml.ID, got.ID)
	assert.Equal(t, []string{"Machine learning frameworks->AI/ML"}, asked)
	require.Len(t, matcher.seen, 1)
	assert.Equal(t, "AI/ML", matcher.seen[0].Name)
}

func TestResolve_MatchDeclinedCreatesDistinctDomain(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := NewManager(store,
		WithMatcher(&stubMatcher{match: "AI/ML", ok: true}),
		WithReuseConfirmer(func(context.Context, string, string) (bool, error) { return false, nil }),
	)

	aiml, err := m.Resolve(ctx, "ai-ml")
	require.NoError(t, err)

	got, err := m.Resolve(ctx, "Machine learning")
	require.NoError(t, err)
	assert.NotEqual(t, aiml.ID, got.ID)
	assert.Equal(t, "Machine learning", got.Name)
}

func TestResolveCustom_StoresMetadataAfterDecline(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	matcher := &stubMatcher{match: "AI/ML", ok: true}
	m := NewManager(store,
		WithMatcher(matcher),
		WithReuseConfirmer(func(context.Context, string, string) (bool, error) { return false, nil }),
	)
	_, err := m.Resolve(ctx, "ai-ml")
	require.NoError(t, err)

	res, err := m.ResolveCustom(ctx, Custom{
		Name:        "ML tooling",
		Description: "Frameworks for training models",
		Keywords:    []string{"pytorch", "jax"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, matcher.calls)
	assert.True(t, res.Created)
	assert.Equal(t, "ML tooling", res.Domain.Name)
	assert.Equal(t, "Frameworks for training models", res.Domain.Description)
	assert.Equal(t, []string{"pytorch", "jax"}, res.Domain.Keywords)
}

func TestResolveCustom_ReusesConfirmedMatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := NewManager(store,
		WithMatcher(&stubMatcher{match: "AI/ML", ok: true}),
		WithReuseConfirmer(func(context.Context, string, string) (bool, error) { return true, nil }),
	)
	aiml, err := m.Resolve(ctx, "ai-ml")
	require.NoError(t, err)

	scope, created, err := m.SetCurrentCustomDomain(ctx, Custom{Name: "Machine learning", Description: "ignored"})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, Scope{ID: aiml.ID, Name: "AI/ML"}, scope)
	current, ok := m.Current()
	assert.True(t, ok)
	assert.Equal(t, scope, current)

	domains, err := m.ListDomains(ctx)
	require.NoError(t, err)
	assert.Len(t, domains, 1)
}

func TestResolveCustom_ExistingNameIsNotCreated(t *testing.T) {
	m := NewManager(newTestStore(t))
	ctx := context.Background()
	_, err := m.CreateCustomDomain(ctx, "Robotics", "robots", nil)
	require.NoError(t, err)

	res, err := m.ResolveCustom(ctx, Custom{Name: "Robotics", Description: "other"})

	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "robots", res.Domain.Description)
}

func TestResolve_MatchWithoutConfirmerCreates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := NewManager(store, WithMatcher(&stubMatcher{match: "AI/ML", ok: true}))

	aiml, err := m.Resolve(ctx, "ai-ml")
	require.NoError(t, err)
	got, err := m.Resolve(ctx, "Deep learning")
	require.NoError(t, err)
	assert.NotEqual(t, aiml.ID, got.ID)
}

func TestResolve_HallucinatedMatchIgnored(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	confirmed := false
	m := NewManager(store,
		WithMatcher(&stubMatcher{match: "Not A Domain", ok: true}),
		WithReuseConfirmer(func(context.Context, string, string) (bool, error) {
			confirmed = true
			return true, nil
		}),
	)

	_, err := m.Resolve(ctx, "web3")
	require.NoError(t, err)
	got, err := m.Resolve(ctx, "Bioinformatics")
	require.NoError(t, err)
	assert.Equal(t, "Bioinformatics", got.Name)
	assert.False(t, confirmed, "an unknown match name must never reach the confirmer")
}

func TestResolve_MatcherErrorTreatedAsNoMatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := NewManager(store, WithMatcher(&stubMatcher{err: errors.New("timeout")}))

	_, err := m.Resolve(ctx, "web3")
	require.NoError(t, err)
	got, err := m.Resolve(ctx, "Decentralized storage")
	require.NoError(t, err)
	assert.Equal(t, "Decentralized storage", got.Name)
}

func TestResolve_ConfirmerErrorPropagates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := NewManager(store,
		WithMatcher(&stubMatcher{match: "web3", ok: true}),
		WithReuseConfirmer(func(context.Context, string, string) (bool, error) {
			return false, errors.New("stdin closed")
		}),
	)

	_, err := m.Resolve(ctx, "web3")
	require.NoError(t, err)
	_, err = m.Resolve(ctx, "dApps")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin closed")
}

func TestSetCurrentDomain(t *testing.T) {
	m := NewManager(newTestStore(t))
	ctx := context.Background()

	_, ok := m.Current()
	assert.False(t, ok)

	scope, err := m.SetCurrentDomain(ctx, "quantum-computing")
	require.NoError(t, err)
	assert.Equal(t, "quantum-computing", scope.Name)
	require.NotNil(t, scope.DomainID())
	assert.Equal(t, scope.ID, *scope.DomainID())

	cur, ok := m.Current()
	assert.True(t, ok)
	assert.Equal(t, scope, cur)

	d, err := m.CurrentDomain(ctx)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, scope.ID, d.ID)
}

func TestScope_ZeroIsUnscoped(t *testing.T) {
	var s Scope
	assert.True(t, s.IsZero())
	assert.Nil(t, s.DomainID())
}

func TestGetDomainStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := NewManager(store)

	missing, err := m.GetDomainStats(ctx, "nothing")
	require.NoError(t, err)
	assert.False(t, missing.Exists)
	assert.Equal(t, "nothing", missing.Name)

	scope, err := m.SetCurrentDomain(ctx, "ai-ml")
	require.NoError(t, err)
	svc := memory.NewService(store, scope.DomainID())
	for _, name := range []string{"t1", "t2", "t3", "t4", "t5", "t6"} {
		_, err := svc.StoreTopic(ctx, name, "", nil, nil)
		require.NoError(t, err)
	}

	stats, err := m.GetDomainStats(ctx, "AI/ML")
	require.NoError(t, err)
	assert.True(t, stats.Exists)
	assert.Equal(t, 6, stats.TopicCount)
	assert.Len(t, stats.RecentTopics, 5)
	assert.NotEmpty(t, stats.Keywords)
}

func TestDeleteDomain(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := NewManager(store)

	_, err := m.DeleteDomain(ctx, "AI/ML", false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	aiml, err := m.SetCurrentDomain(ctx, "ai-ml")
	require.NoError(t, err)
	web3, err := m.Resolve(ctx, "web3")
	require.NoError(t, err)

	_, err = memory.NewService(store, aiml.DomainID()).StoreTopic(ctx, "gone", "", nil, nil)
	require.NoError(t, err)
	_, err = memory.NewService(store, &web3.ID).StoreTopic(ctx, "kept", "", nil, nil)
	require.NoError(t, err)

	deleted, err := m.DeleteDomain(ctx, "AI/ML", true)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok := m.Current()
	assert.False(t, ok, "deleting the current domain clears the pointer")

	n, err := store.CountTopics(ctx, memory.TopicFilter{DomainID: &web3.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = store.CountTopics(ctx, memory.TopicFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	deleted, err = m.DeleteDomain(ctx, "AI/ML", true)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteDomain_OtherDomainKeepsCurrent(t *testing.T) {
	m := NewManager(newTestStore(t))
	ctx := context.Background()

	cur, err := m.SetCurrentDomain(ctx, "web3")
	require.NoError(t, err)
	_, err = m.Resolve(ctx, "cryptocurrency")
	require.NoError(t, err)

	_, err = m.DeleteDomain(ctx, "cryptocurrency", true)
	require.NoError(t, err)
	got, ok := m.Current()
	assert.True(t, ok)
	assert.Equal(t, cur, got)
}

func TestCreateCustomDomain(t *testing.T) {
	m := NewManager(newTestStore(t))
	ctx := context.Background()

	d, err := m.CreateCustomDomain(ctx, "Robotics", "Robots and automation", []string{"ROS", "actuators"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ROS", "actuators"}, d.Keywords)

	_, err = m.CreateCustomDomain(ctx, "Robotics", "", nil)
	assert.ErrorIs(t, err, ErrDomainExists)
}

func TestPromptContext(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := NewManager(store)

	_, err := m.CreateCustomDomain(ctx, "Robotics", "Robots and automation", []string{"ROS", "actuators"})
	require.NoError(t, err)
	_, err = m.CreateCustomDomain(ctx, "Bare", "", nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want PromptContext
	}{
		{
			name: "empty defaults to AI/ML preset",
			in:   "",
			want: PromptContext{
				Domain:      "AI/ML",
				Description: "Artificial Intelligence and Machine Learning development",
				Keywords:    "AI libraries, ML frameworks, LLM models, vector databases, transformers, neural networks, deep learning",
				FocusAreas:  "New libraries and frameworks, Model releases, Research papers, Developer tools",
			},
		},
		{
			name: "preset by display name case-insensitive",
			in:   "WEB3",
			want: PromptContext{
				Domain:      "web3",
				Description: "Web3 and decentralized technologies",
				Keywords:    "decentralized apps, IPFS, decentralized storage, Web3 infrastructure, dApps, DAOs",
				FocusAreas:  "dApps, Infrastructure, Tools, Communities",
			},
		},
		{
			name: "stored custom domain",
			in:   "Robotics",
			want: PromptContext{
				Domain:      "Robotics",
				Description: "Robots and automation",
				Keywords:    "ROS, actuators",
				FocusAreas:  "new developments, tools, and updates",
			},
		},
		{
			name: "stored custom domain without description",
			in:   "Bare",
			want: PromptContext{
				Domain:      "Bare",
				Description: "Research domain: Bare",
				Keywords:    "",
				FocusAreas:  "new developments, tools, and updates",
			},
		},
		{
			name: "unknown falls back to generic",
			in:   "Marine biology",
			want: PromptContext{
				Domain:      "Marine biology",
				Description: "Research domain: Marine biology",
				Keywords:    "",
				FocusAreas:  "new developments, tools, and updates",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.PromptContext(ctx, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPromptContext_UsesCurrentDomain(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	m := NewManager(store)

	_, err := m.SetCurrentDomain(ctx, "Robotics")
	require.NoError(t, err)

	got, err := m.PromptContext(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Robotics", got.Domain)
	assert.Equal(t, "Custom research domain: Robotics", got.Description)
}

func TestPresets(t *testing.T) {
	ps := Presets()
	require.Len(t, ps, 4)
	assert.Equal(t, []string{"ai-ml", "cryptocurrency", "web3", "quantum-computing"},
		[]string{ps[0].Key, ps[1].Key, ps[2].Key, ps[3].Key})

	ps[0].Keywords[0] = "mutated"
	again, ok := LookupPreset("AI-ML")
	require.True(t, ok)
	assert.Equal(t, "AI libraries", again.Keywords[0])

	_, ok = LookupPreset("biotech")
	assert.False(t, ok)
}
