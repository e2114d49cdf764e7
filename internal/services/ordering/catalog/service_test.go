package catalog

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	apperrors "github.com/tableside/tableside/internal/platform/errors"
	"github.com/tableside/tableside/internal/services/ordering/storage"
	"github.com/tableside/tableside/internal/services/ordering/storage/storagetest"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *storagetest.Store) {
	t.Helper()

	store := storagetest.New()
	svc := NewService(store, zap.NewNop())
	svc.clock = func() time.Time { return time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestCreateMenuItemGroupsIntoExistingCategory(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateMenuItem(ctx, MenuItemInput{ID: "m1", Name: "Tea", Price: 300, Category: "Drinks"}); err != nil {
		t.Fatalf("create m1: %v", err)
	}

	got, err := svc.ListCatalog(ctx)
	if err != nil {
		t.Fatalf("list catalog: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Drinks" || len(got[0].Items) != 1 || got[0].Items[0].ID != "m1" {
		t.Fatalf("catalog = %+v, want Drinks containing m1", got)
	}

	if _, err := svc.CreateMenuItem(ctx, MenuItemInput{ID: "m2", Name: "Coffee", Price: 350, Category: "Drinks"}); err != nil {
		t.Fatalf("create m2: %v", err)
	}
	got, err = svc.ListCatalog(ctx)
	if err != nil {
		t.Fatalf("list catalog: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("categories = %d, want 1", len(got))
	}
	ids := []string{got[0].Items[0].ID, got[0].Items[1].ID}
	if diff := cmp.Diff([]string{"m1", "m2"}, ids); diff != "" {
		t.Fatalf("item ids mismatch (-want +got):\n%s", diff)
	}
}

func TestListCatalogIsIdempotent(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, in := range []MenuItemInput{
		{ID: "a", Name: "Gyoza", Price: 420, Category: "Sides", Options: []storage.MenuOption{{Name: "Extra", Price: 100}}},
		{ID: "b", Name: "Beer", Price: 550, Category: "Drinks", IsRecommended: true},
	} {
		if _, err := svc.CreateMenuItem(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.ID, err)
		}
	}

	first, err := svc.ListCatalog(ctx)
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	second, err := svc.ListCatalog(ctx)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("catalog changed between reads (-first +second):\n%s", diff)
	}
	if !first[1].Items[0].IsRecommended {
		t.Fatal("expected recommended flag to be true")
	}
}

func TestCreateMenuItemRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	in := MenuItemInput{ID: "m1", Name: "Tea", Price: 300, Category: "Drinks"}
	if _, err := svc.CreateMenuItem(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.CreateMenuItem(context.Background(), in)
	if !apperrors.HasCode(err, apperrors.CodeDuplicateID) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeDuplicateID)
	}
	if got := apperrors.MetadataOf(err)["ID"]; got != "m1" {
		t.Fatalf("metadata id = %q, want m1", got)
	}
}

func TestCreateMenuItemValidatesInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    MenuItemInput
		field string
	}{
		{name: "missing id", in: MenuItemInput{Name: "Tea", Category: "Drinks"}, field: "id"},
		{name: "blank name", in: MenuItemInput{ID: "m1", Name: "  ", Category: "Drinks"}, field: "name"},
		{name: "missing category", in: MenuItemInput{ID: "m1", Name: "Tea"}, field: "category"},
		{name: "negative price", in: MenuItemInput{ID: "m1", Name: "Tea", Category: "Drinks", Price: -1}, field: "price"},
		{name: "nan price", in: MenuItemInput{ID: "m1", Name: "Tea", Category: "Drinks", Price: math.NaN()}, field: "price"},
		{name: "negative option", in: MenuItemInput{ID: "m1", Name: "Tea", Category: "Drinks", Options: []storage.MenuOption{{Name: "Milk", Price: -10}}}, field: "options[0].price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			_, err := svc.CreateMenuItem(context.Background(), tt.in)
			if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
				t.Fatalf("error = %v, want %s", err, apperrors.CodeInvalidInput)
			}
			if got := apperrors.MetadataOf(err)["Field"]; got != tt.field {
				t.Fatalf("field = %q, want %q", got, tt.field)
			}
			count, _ := store.CountMenuItems(context.Background())
			if count != 0 {
				t.Fatalf("count = %d, want 0", count)
			}
		})
	}
}

func TestUpdateMenuItemChangesOnlySuppliedFields(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateMenuItem(ctx, MenuItemInput{
		ID: "m1", Name: "Tea", Description: "Hot", Price: 300, Category: "Drinks",
		Options: []storage.MenuOption{{Name: "Lemon", Price: 50}},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	price := 350.0
	id, err := svc.UpdateMenuItem(ctx, "m1", MenuItemUpdate{Price: &price})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if id != "m1" {
		t.Fatalf("id = %q, want m1", id)
	}

	got, err := svc.ListCatalog(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []Category{{Name: "Drinks", Items: []Item{{
		ID: "m1", Name: "Tea", Description: "Hot", Price: 350, Category: "Drinks",
		Options: []storage.MenuOption{{Name: "Lemon", Price: 50}},
	}}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateMenuItemErrors(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateMenuItem(ctx, MenuItemInput{ID: "m1", Name: "Tea", Price: 300, Category: "Drinks"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Coffee"
	if _, err := svc.UpdateMenuItem(ctx, "missing", MenuItemUpdate{Name: &name}); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("missing id error = %v, want %s", err, apperrors.CodeNotFound)
	}
	blank := " "
	if _, err := svc.UpdateMenuItem(ctx, "m1", MenuItemUpdate{Category: &blank}); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("blank category error = %v, want %s", err, apperrors.CodeInvalidInput)
	}
	negative := -5.0
	if _, err := svc.UpdateMenuItem(ctx, "m1", MenuItemUpdate{Price: &negative}); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("negative price error = %v, want %s", err, apperrors.CodeInvalidInput)
	}
}

func TestUpdateMenuItemWithNoFieldsLeavesItemUntouched(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateMenuItem(ctx, MenuItemInput{ID: "m1", Name: "Tea", Price: 300, Category: "Drinks"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	before, _ := store.ListMenuItems(ctx)

	svc.clock = func() time.Time { return time.Date(2026, time.May, 2, 12, 0, 0, 0, time.UTC) }
	if id, err := svc.UpdateMenuItem(ctx, "m1", MenuItemUpdate{}); err != nil || id != "m1" {
		t.Fatalf("update = %q, %v; want m1, nil", id, err)
	}
	after, _ := store.ListMenuItems(ctx)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("item changed by empty update (-before +after):\n%s", diff)
	}
	if _, err := svc.UpdateMenuItem(ctx, "missing", MenuItemUpdate{}); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("missing id error = %v, want %s", err, apperrors.CodeNotFound)
	}
}

func TestDeleteMenuItem(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateMenuItem(ctx, MenuItemInput{ID: "m1", Name: "Tea", Price: 300, Category: "Drinks"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.DeleteMenuItem(ctx, "nope"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("delete missing error = %v, want %s", err, apperrors.CodeNotFound)
	}
	if count, _ := store.CountMenuItems(ctx); count != 1 {
		t.Fatalf("count after failed delete = %d, want 1", count)
	}

	id, err := svc.DeleteMenuItem(ctx, "m1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if id != "m1" {
		t.Fatalf("id = %q, want m1", id)
	}
	if count, _ := store.CountMenuItems(ctx); count != 0 {
		t.Fatalf("count after delete = %d, want 0", count)
	}
}

func TestStoreFailuresBecomeStoreErrors(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	boom := errors.New("disk full")
	store.Err = boom

	_, err := svc.ListCatalog(context.Background())
	if !apperrors.HasCode(err, apperrors.CodeStoreError) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeStoreError)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want cause %v", err, boom)
	}
}
