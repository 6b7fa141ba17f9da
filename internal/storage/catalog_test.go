package storage

import (
	"context"
	"errors"
	"testing"

	"gig-wizard/internal/model"
	"gig-wizard/internal/refclient"
)

func TestCatalogSkillLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	catalog := NewCatalog(store)
	ctx := context.Background()

	created, err := catalog.SaveSkill(ctx, model.SkillInput{Name: "Rapport", Category: model.CategorySoftSkill})
	if err != nil {
		t.Fatalf("SaveSkill error: %v", err)
	}
	if created.ID == "" || !created.IsActive {
		t.Fatalf("expected active item with id, got %+v", created)
	}

	inactive := false
	updated, err := catalog.UpdateSkill(ctx, created.ID, model.SkillInput{Name: "Rapport building", Category: model.CategorySoftSkill, IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateSkill error: %v", err)
	}
	if updated.Name != "Rapport building" || updated.IsActive {
		t.Fatalf("unexpected updated item: %+v", updated)
	}

	items, err := catalog.FetchCategory(ctx, model.CategorySoftSkill)
	if err != nil {
		t.Fatalf("FetchCategory error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected inactive item still listed, got %d", len(items))
	}

	if err := catalog.DeleteSkill(ctx, created.ID); err != nil {
		t.Fatalf("DeleteSkill error: %v", err)
	}
	if err := catalog.DeleteSkill(ctx, created.ID); !errors.Is(err, refclient.ErrNotFound) {
		t.Fatalf("expected refclient.ErrNotFound, got %v", err)
	}
	if _, err := catalog.GetSkillByID(ctx, created.ID); !errors.Is(err, refclient.ErrNotFound) {
		t.Fatalf("expected refclient.ErrNotFound, got %v", err)
	}
}

func TestCatalogGetSkillIgnoresNonSkill(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	catalog := NewCatalog(store)
	ctx := context.Background()

	res, err := catalog.SyncSkills(ctx, []model.ReferenceItem{
		{ID: "en", Name: "English", Category: model.CategoryLanguage, IsActive: true},
		{ID: "t1", Name: "Dialer", Category: model.CategoryTechnicalSkill, IsActive: true},
	})
	if err != nil {
		t.Fatalf("SyncSkills error: %v", err)
	}
	if res.Created != 2 {
		t.Fatalf("expected 2 created, got %+v", res)
	}

	if _, err := catalog.GetSkillByID(ctx, "en"); !errors.Is(err, refclient.ErrNotFound) {
		t.Fatalf("expected language to be hidden from skill lookup, got %v", err)
	}
	item, err := catalog.GetSkillByID(ctx, "t1")
	if err != nil || item.Name != "Dialer" {
		t.Fatalf("expected Dialer, got %+v (%v)", item, err)
	}

	if _, err := catalog.FetchCategory(ctx, model.Category("hobby")); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestCatalogMutationsRejectNonSkill(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	catalog := NewCatalog(store)
	ctx := context.Background()

	if _, err := store.UpsertItems(ctx, []model.ReferenceItem{
		{ID: "a1", Name: "Outbound Sales", Category: model.CategoryActivity, IsActive: true},
		{ID: "en", Name: "English", Category: model.CategoryLanguage, Code: "en", IsActive: true},
	}); err != nil {
		t.Fatalf("UpsertItems error: %v", err)
	}

	if err := catalog.DeleteSkill(ctx, "a1"); !errors.Is(err, refclient.ErrNotFound) {
		t.Fatalf("expected refclient.ErrNotFound deleting activity, got %v", err)
	}
	if _, err := catalog.UpdateSkill(ctx, "en", model.SkillInput{Name: "Rapport", Category: model.CategorySoftSkill}); !errors.Is(err, refclient.ErrNotFound) {
		t.Fatalf("expected refclient.ErrNotFound updating language, got %v", err)
	}

	a1, err := store.GetItem(ctx, "a1")
	if err != nil || a1.Name != "Outbound Sales" {
		t.Fatalf("expected activity kept, got %+v (%v)", a1, err)
	}
	en, err := store.GetItem(ctx, "en")
	if err != nil || en.Category != model.CategoryLanguage || en.Name != "English" {
		t.Fatalf("expected language unchanged, got %+v (%v)", en, err)
	}
}
