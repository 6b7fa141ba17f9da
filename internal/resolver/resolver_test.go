package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gig-wizard/internal/events"
	"gig-wizard/internal/model"
)

func TestFuzzyTierOrderingPrefersExact(t *testing.T) {
	t.Parallel()

	items := []model.ReferenceItem{
		{ID: "2", Name: "Sales Development", IsActive: true},
		{ID: "1", Name: "Sales", IsActive: true},
	}

	item, tier, ok := Match(items, "Sales")
	require.True(t, ok)
	assert.Equal(t, "1", item.ID)
	assert.Equal(t, TierExact, tier)
}

func TestFuzzyTiers(t *testing.T) {
	t.Parallel()

	items := []model.ReferenceItem{
		{ID: "x", Name: "English", IsActive: true},
		{ID: "cs", Name: "Customer Service", IsActive: true},
	}

	cases := []struct {
		needle string
		id     string
		tier   Tier
	}{
		{"English", "x", TierExact},
		{"english", "x", TierCaseInsensitive},
		{"  ENGLISH ", "x", TierCaseInsensitive},
		{"customer", "cs", TierSubstring},
		{"Excellent customer service skills", "cs", TierSubstring},
	}
	for _, tc := range cases {
		item, tier, ok := Match(items, tc.needle)
		require.True(t, ok, tc.needle)
		assert.Equal(t, tc.id, item.ID, tc.needle)
		assert.Equal(t, tc.tier, tier, tc.needle)
	}

	_, tier, ok := Match(items, "Underwater welding")
	assert.False(t, ok)
	assert.Equal(t, TierNone, tier)

	_, _, ok = Match(items, "   ")
	assert.False(t, ok, "empty needle must not match everything by substring")
}

func TestFuzzyTieBreakPrefersActiveThenOrder(t *testing.T) {
	t.Parallel()

	items := []model.ReferenceItem{
		{ID: "old", Name: "Closing", IsActive: false},
		{ID: "new", Name: "Closing", IsActive: true},
		{ID: "dup", Name: "Closing", IsActive: true},
	}
	item, _, ok := Match(items, "Closing")
	require.True(t, ok)
	assert.Equal(t, "new", item.ID)

	item, _, ok = Match(items[:1], "closing")
	require.True(t, ok)
	assert.Equal(t, "old", item.ID, "inactive items remain matchable")
}

func TestResolutionRoundTrip(t *testing.T) {
	t.Parallel()

	snap := newSnapshot(model.CategorySoftSkill, []model.ReferenceItem{
		{ID: "a", Name: "Communication", IsActive: true},
		{ID: "b", Name: "Empathy", IsActive: true},
		{ID: "c", Name: "Resilience", IsActive: true},
	})
	r := New(snap, model.CategorySoftSkill, nil)

	for _, item := range snap.items {
		assert.Equal(t, item.Name, r.NameOf(item.ID))
		assert.Equal(t, []string{item.ID}, r.IDsOfNames([]string{item.Name}))
	}
}

func TestNameOfSentinel(t *testing.T) {
	t.Parallel()

	r := New(newSnapshot(model.CategoryIndustry, nil), model.CategoryIndustry, nil)
	assert.Equal(t, "Unknown Industry", r.NameOf("missing"))

	r = New(newSnapshot(model.CategoryTechnicalSkill, nil), model.CategoryTechnicalSkill, nil)
	assert.Equal(t, "Unknown Technical Skill", r.NameOf(""))
}

func TestIDsOfNamesOmitsMissesAndEmitsEvent(t *testing.T) {
	t.Parallel()

	rec := &events.Recorder{}
	r := New(newSnapshot(model.CategoryActivity, []model.ReferenceItem{
		{ID: "a1", Name: "Outbound Calls", IsActive: true},
		{ID: "a2", Name: "Inbound Calls", IsActive: true},
	}), model.CategoryActivity, rec)

	ids := r.IDsOfNames([]string{"inbound calls", "Cold emailing", "OUTBOUND CALLS"})
	assert.Equal(t, []string{"a2", "a1"}, ids)
	assert.Equal(t, 1, rec.Count(events.NameUnresolved))
	assert.Equal(t, "Cold emailing", rec.Events()[0].Name)
}

func TestByIDFindsInactiveItems(t *testing.T) {
	t.Parallel()

	r := New(newSnapshot(model.CategoryIndustry, []model.ReferenceItem{
		{ID: "legacy", Name: "Telex", IsActive: false},
	}), model.CategoryIndustry, nil)

	item, ok := r.ByID("legacy")
	require.True(t, ok)
	assert.Equal(t, "Telex", item.Name)
	assert.Empty(t, r.Options())
}

func TestOptionsProjection(t *testing.T) {
	t.Parallel()

	langs := New(newSnapshot(model.CategoryLanguage, []model.ReferenceItem{
		{ID: "fr", Name: "french", Code: "fr", IsActive: true},
		{ID: "en", Name: "English", Code: "en", IsActive: true},
		{ID: "la", Name: "Latin", Code: "la", IsActive: false},
	}), model.CategoryLanguage, nil)

	opts := langs.Options()
	require.Len(t, opts, 2)
	assert.Equal(t, Option{Value: "en", Label: "English", Code: "en"}, opts[0])
	assert.Equal(t, "fr", opts[1].Value)

	skills := New(newSnapshot(model.CategorySoftSkill, []model.ReferenceItem{
		{ID: "s", Name: "Empathy", IsActive: true, Description: "Understands others"},
	}), model.CategorySoftSkill, nil)
	assert.Equal(t, []Option{{Value: "s", Label: "Empathy", Category: model.CategorySoftSkill, Description: "Understands others"}}, skills.Options())
}

func TestColdSnapshotReturnsEmptyResults(t *testing.T) {
	t.Parallel()

	r := New(coldSnapshot{}, model.CategoryLanguage, nil)

	assert.NotNil(t, r.Options())
	assert.Empty(t, r.Options())
	assert.False(t, r.Loaded())
	assert.Empty(t, r.IDsOfNames([]string{"English"}))
	_, _, ok := r.Match("English")
	assert.False(t, ok)
}

type snapshot struct {
	category model.Category
	items    []model.ReferenceItem
}

func newSnapshot(category model.Category, items []model.ReferenceItem) *snapshot {
	return &snapshot{category: category, items: items}
}

func (s *snapshot) Items(category model.Category) ([]model.ReferenceItem, bool) {
	if category != s.category {
		return []model.ReferenceItem{}, false
	}
	out := make([]model.ReferenceItem, len(s.items))
	copy(out, s.items)
	return out, true
}

type coldSnapshot struct{}

func (coldSnapshot) Items(model.Category) ([]model.ReferenceItem, bool) {
	return []model.ReferenceItem{}, false
}
