package reference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gig-wizard/internal/events"
	"gig-wizard/internal/migrate"
	"gig-wizard/internal/model"
	"gig-wizard/internal/refcache"
)

func TestColdLanguageOptionsAreEmpty(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{}
	svc := New(refcache.New(f), nil)

	opts := svc.Languages().Options()
	assert.NotNil(t, opts)
	assert.Empty(t, opts)
	assert.Equal(t, 0, f.calls)
}

func TestViewsPerCategory(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{items: map[model.Category][]model.ReferenceItem{
		model.CategoryActivity: {{ID: "a1", Name: "Outbound Calls", IsActive: true}},
		model.CategoryIndustry: {{ID: "i1", Name: "Insurance", IsActive: true}, {ID: "i2", Name: "Telecom", IsActive: false}},
	}}
	svc := New(refcache.New(f), nil)
	ctx := context.Background()

	require.Len(t, svc.Activities().Load(ctx), 1)
	assert.Equal(t, "Outbound Calls", svc.Activities().NameByID("a1"))
	assert.Equal(t, []string{"a1"}, svc.Activities().NamesToIDs([]string{"outbound calls"}))

	svc.Industries().Load(ctx)
	assert.Len(t, svc.Industries().Options(), 1)
	assert.Equal(t, "Telecom", svc.Industries().NameByID("i2"))
	assert.Equal(t, "Unknown Industry", svc.Industries().NameByID("nope"))

	assert.Empty(t, svc.Load(ctx, model.Category("hobby")))
	assert.Equal(t, "Unknown Reference", svc.NameByID(model.Category("hobby"), "x"))
}

func TestLoadAndMigrateLoadsBundleCategories(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{items: map[model.Category][]model.ReferenceItem{
		model.CategorySoftSkill: {{ID: "abc123", Name: "Communication", IsActive: true}},
		model.CategoryLanguage:  {{ID: "x", Name: "English", IsActive: true}},
	}}
	svc := New(refcache.New(f), nil)

	in := model.Bundle{
		Soft:      []model.SkillEntry{{Ref: model.LegacyRef("communication")}},
		Languages: []model.LanguageEntry{{Ref: model.LegacyRef("english")}},
	}

	cold := svc.Migrate(in)
	assert.Len(t, cold.Unresolved, 2)

	res := svc.LoadAndMigrate(context.Background(), in, migrate.Retain)
	assert.True(t, res.Clean())
	assert.Equal(t, "abc123", res.Bundle.Soft[0].Ref.ID())
	assert.Equal(t, "x", res.Bundle.Languages[0].Ref.ID())
	assert.Equal(t, 4, f.calls)
}

func TestFetchFailureDegradesToEmpty(t *testing.T) {
	t.Parallel()

	rec := &events.Recorder{}
	svc := New(refcache.New(&stubFetcher{err: errors.New("offline")}, refcache.WithSink(rec)), rec)

	assert.Empty(t, svc.SoftSkills().Load(context.Background()))
	assert.Empty(t, svc.SoftSkills().Options())
	assert.Equal(t, 1, rec.Count(events.CacheFetchFailed))
}

func TestClearCache(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{items: map[model.Category][]model.ReferenceItem{
		model.CategoryTechnicalSkill: {{ID: "t", Name: "Dialer", IsActive: true}},
	}}
	svc := New(refcache.New(f), nil)
	svc.TechnicalSkills().Load(context.Background())
	require.Len(t, svc.TechnicalSkills().Options(), 1)

	svc.ClearCache()
	assert.Empty(t, svc.TechnicalSkills().Options())
}

type stubFetcher struct {
	items map[model.Category][]model.ReferenceItem
	err   error
	calls int
}

func (s *stubFetcher) FetchCategory(_ context.Context, c model.Category) ([]model.ReferenceItem, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.items[c], nil
}
