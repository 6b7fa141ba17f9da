package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"gig-wizard/internal/model"

	"gorm.io/datatypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "refdata.db")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStoreUpsertAndList(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	items := []model.ReferenceItem{
		{ID: "en", Name: "English", Category: model.CategoryLanguage, Code: "en", IsActive: true},
		{ID: "fr", Name: "French", Category: model.CategoryLanguage, Code: "fr", IsActive: true},
		{ID: "s1", Name: "Empathy", Category: model.CategorySoftSkill, IsActive: true},
	}

	res, err := store.UpsertItems(ctx, items)
	if err != nil {
		t.Fatalf("UpsertItems error: %v", err)
	}
	if res.Created != 3 || res.Total != 3 {
		t.Fatalf("expected 3 created of 3, got %+v", res)
	}

	unnamed := []model.ReferenceItem{{Name: "Negotiation", Category: model.CategorySoftSkill, IsActive: true}}
	if _, err := store.UpsertItems(ctx, unnamed); err != nil {
		t.Fatalf("UpsertItems without id error: %v", err)
	}
	if unnamed[0].ID != "" {
		t.Fatalf("expected caller slice untouched, got id %q", unnamed[0].ID)
	}

	// Re-upsert with a rename to ensure we update existing rows but do not count as new.
	items[1].Name = "Français"
	items[1].IsActive = false
	res, err = store.UpsertItems(ctx, items)
	if err != nil {
		t.Fatalf("UpsertItems second run error: %v", err)
	}
	if res.Created != 0 {
		t.Fatalf("expected 0 newly created items on second upsert, got %d", res.Created)
	}

	got, err := store.ListItems(ctx, model.CategoryLanguage)
	if err != nil {
		t.Fatalf("ListItems error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 languages, got %d", len(got))
	}
	fr, err := store.GetItem(ctx, "fr")
	if err != nil {
		t.Fatalf("GetItem error: %v", err)
	}
	if fr.Name != "Français" || fr.IsActive {
		t.Fatalf("expected updated French row, got %+v", fr)
	}

	total, err := store.CountItems(ctx, model.CategorySoftSkill)
	if err != nil {
		t.Fatalf("CountItems error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 soft skills, got %d", total)
	}
}

func TestStoreItemCRUD(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	item := model.ReferenceItem{Name: "Cold Calling", Category: model.CategoryTechnicalSkill, IsActive: true}
	if err := store.CreateItem(ctx, &item); err != nil {
		t.Fatalf("CreateItem error: %v", err)
	}
	if item.ID == "" {
		t.Fatalf("expected generated id")
	}

	item.Name = "Cold Calling Scripts"
	item.IsActive = false
	if err := store.UpdateItem(ctx, &item); err != nil {
		t.Fatalf("UpdateItem error: %v", err)
	}
	if item.Name != "Cold Calling Scripts" || item.IsActive {
		t.Fatalf("expected refreshed item after update, got %+v", item)
	}

	missing := model.ReferenceItem{ID: "nope", Name: "x"}
	if err := store.UpdateItem(ctx, &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	deleted, err := store.DeleteItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("DeleteItem error: %v", err)
	}
	if deleted.ID != item.ID {
		t.Fatalf("expected deleted item returned, got %+v", deleted)
	}
	if _, err := store.GetItem(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreSearchItems(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertItems(ctx, []model.ReferenceItem{
		{ID: "s1", Name: "Active Listening", Category: model.CategorySoftSkill, IsActive: true},
		{ID: "p1", Name: "Listening Tours", Category: model.CategoryProfessionalSkill, IsActive: true},
		{ID: "i1", Name: "Listening Devices", Category: model.CategoryIndustry, IsActive: true},
		{ID: "s2", Name: "100% Commitment", Category: model.CategorySoftSkill, IsActive: true},
	})
	if err != nil {
		t.Fatalf("UpsertItems error: %v", err)
	}

	all, err := store.SearchItems(ctx, "", "LISTEN")
	if err != nil {
		t.Fatalf("SearchItems error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 skill matches (industry excluded), got %d", len(all))
	}

	soft, err := store.SearchItems(ctx, model.CategorySoftSkill, "listen")
	if err != nil {
		t.Fatalf("SearchItems error: %v", err)
	}
	if len(soft) != 1 || soft[0].ID != "s1" {
		t.Fatalf("expected only s1, got %+v", soft)
	}

	pct, err := store.SearchItems(ctx, "", "100%")
	if err != nil {
		t.Fatalf("SearchItems error: %v", err)
	}
	if len(pct) != 1 || pct[0].ID != "s2" {
		t.Fatalf("expected literal %% match, got %+v", pct)
	}
}

func TestStoreGigs(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	skills, _ := json.Marshal(model.Bundle{Soft: []model.SkillEntry{{Ref: model.CanonicalRef("s1")}}})
	industries, _ := json.Marshal([]string{"i1"})
	gig := model.Gig{
		Title:       "Inbound sales rep",
		ActivityID:  "a1",
		IndustryIDs: datatypes.JSON(industries),
		Skills:      datatypes.JSON(skills),
		Status:      model.GigStatusSubmitted,
	}
	if err := store.CreateGig(ctx, &gig); err != nil {
		t.Fatalf("CreateGig error: %v", err)
	}

	fetched, err := store.GetGig(ctx, gig.ID)
	if err != nil {
		t.Fatalf("GetGig error: %v", err)
	}
	var bundle model.Bundle
	if err := json.Unmarshal(fetched.Skills, &bundle); err != nil {
		t.Fatalf("decode skills: %v", err)
	}
	if len(bundle.Soft) != 1 || bundle.Soft[0].Ref.ID() != "s1" {
		t.Fatalf("unexpected persisted bundle: %+v", bundle)
	}

	gigs, err := store.ListGigs(ctx, 10)
	if err != nil {
		t.Fatalf("ListGigs error: %v", err)
	}
	if len(gigs) != 1 {
		t.Fatalf("expected 1 gig, got %d", len(gigs))
	}

	if _, err := store.GetGig(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
