package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/avilacode/bloomtrack-backend/internal/data/store"
	"github.com/avilacode/bloomtrack-backend/internal/data/testutil"
	"github.com/avilacode/bloomtrack-backend/internal/domain"
	errs "github.com/avilacode/bloomtrack-backend/internal/pkg/errors"
)

func newActivityStore(t *testing.T) (*store.Store[domain.Activity], context.Context) {
	t.Helper()
	db := testutil.DB(t)
	s := store.New[domain.Activity](db, testutil.Logger(t), store.Descriptor{Collection: "activities"})
	return s, context.Background()
}

func TestCreateStampsLifecycle(t *testing.T) {
	s, ctx := newActivityStore(t)

	created, err := s.Create(ctx, &domain.Activity{UserID: "u1", Score: 80, CompletionRate: 1}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be stamped")
	}
	if created.Deleted {
		t.Fatal("expected deleted=false on create")
	}

	withID, err := s.Create(ctx, &domain.Activity{UserID: "u1", Score: 70, CompletionRate: 1}, "act-explicit")
	if err != nil {
		t.Fatalf("Create(explicit id): %v", err)
	}
	if withID.ID != "act-explicit" {
		t.Fatalf("expected caller-supplied id to win, got %q", withID.ID)
	}
}

func TestSoftDeleteVisibility(t *testing.T) {
	s, ctx := newActivityStore(t)

	created, err := s.Create(ctx, &domain.Activity{UserID: "u1", Score: 80, CompletionRate: 1}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := s.Get(ctx, created.ID, false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatal("expected soft-deleted record to be hidden from Get")
	}

	page, err := s.GetAll(ctx, store.NonDeleted, 10, "")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected soft-deleted record absent from GetAll, got %d items", len(page.Items))
	}

	wherePage, err := s.Where(ctx, "user_id", "==", "u1", 10, "")
	if err != nil {
		t.Fatalf("Where: %v", err)
	}
	if len(wherePage.Items) != 0 {
		t.Fatal("expected soft-deleted record absent from Where")
	}

	hidden, err := s.Get(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("Get(includeDeleted): %v", err)
	}
	if hidden == nil || !hidden.Deleted || hidden.DeletedAt == nil {
		t.Fatalf("expected deleted record with stamp, got %+v", hidden)
	}

	deletedOnly, err := s.GetAll(ctx, store.DeletedOnly, 10, "")
	if err != nil {
		t.Fatalf("GetAll(deleted-only): %v", err)
	}
	if len(deletedOnly.Items) != 1 {
		t.Fatalf("expected 1 deleted-only item, got %d", len(deletedOnly.Items))
	}

	restored, err := s.Restore(ctx, created.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Deleted || restored.DeletedAt != nil {
		t.Fatalf("expected restore to clear the stamp, got %+v", restored)
	}
	if restored.UpdatedAt == nil {
		t.Fatal("expected restore to bump updated_at")
	}

	visible, err := s.Get(ctx, created.ID, false)
	if err != nil {
		t.Fatalf("Get(after restore): %v", err)
	}
	if visible == nil {
		t.Fatal("expected restored record to be visible again")
	}
}

func TestHardDeleteKind(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	s := store.New[domain.Subject](db, testutil.Logger(t), store.Descriptor{Collection: "subjects"})

	if s.Lifecycle() {
		t.Fatal("subjects must not be lifecycle-tracked")
	}

	created, err := s.Create(ctx, &domain.Subject{SubjectName: "UTS"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Restore(ctx, created.ID); !errors.Is(err, errs.ErrLifecycleUnsupported) {
		t.Fatalf("Restore on non-lifecycle kind: expected ErrLifecycleUnsupported, got %v", err)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	gone, err := s.Get(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gone != nil {
		t.Fatal("expected hard delete to remove the row")
	}
}

func TestUpdateMergePatch(t *testing.T) {
	s, ctx := newActivityStore(t)

	created, err := s.Create(ctx, &domain.Activity{UserID: "u1", SubjectID: "subj-1", Score: 40, CompletionRate: 0.5}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.Update(ctx, created.ID, map[string]any{"score": 90.0})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Score != 90 {
		t.Fatalf("expected score=90, got %v", updated.Score)
	}
	if updated.SubjectID != "subj-1" {
		t.Fatal("expected untouched fields to survive a merge patch")
	}
	if updated.UpdatedAt == nil {
		t.Fatal("expected updated_at to be auto-stamped")
	}

	manual := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	updated, err = s.Update(ctx, created.ID, map[string]any{"updated_at": manual})
	if err != nil {
		t.Fatalf("Update(manual updated_at): %v", err)
	}
	if updated.UpdatedAt == nil || !updated.UpdatedAt.Equal(manual) {
		t.Fatalf("expected caller-supplied updated_at to win, got %v", updated.UpdatedAt)
	}

	updated, err = s.Update(ctx, created.ID, map[string]any{"id": "hijack", "duration": 60})
	if err != nil {
		t.Fatalf("Update(id in patch): %v", err)
	}
	if updated.ID != created.ID {
		t.Fatal("expected id to be immutable")
	}
	if updated.Duration != 60 {
		t.Fatal("expected rest of patch to still apply")
	}

	if _, err := s.Update(ctx, "missing", map[string]any{"score": 1.0}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Update(missing): expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Delete(missing): expected ErrNotFound, got %v", err)
	}
	if _, err := s.Restore(ctx, "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Restore(missing): expected ErrNotFound, got %v", err)
	}
}

func TestPaginationNonOverlap(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	s := store.New[domain.Module](db, testutil.Logger(t), store.Descriptor{Collection: "modules"})

	const total = 23
	seeded := map[string]bool{}
	for i := 0; i < total; i++ {
		m, err := s.Create(ctx, &domain.Module{SubjectID: "subj-1", Title: fmt.Sprintf("Module %02d", i)}, "")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		seeded[m.ID] = true
	}

	for _, k := range []int{1, 4, 10, total + 5} {
		visited := map[string]int{}
		var order []string
		cursor := ""
		for {
			page, err := s.GetAll(ctx, store.NonDeleted, k, cursor)
			if err != nil {
				t.Fatalf("GetAll(k=%d): %v", k, err)
			}
			for _, item := range page.Items {
				visited[item.ID]++
				order = append(order, item.ID)
			}
			if page.NextCursor == "" {
				break
			}
			cursor = page.NextCursor
		}
		if len(visited) != total {
			t.Fatalf("k=%d: visited %d unique records, want %d", k, len(visited), total)
		}
		for id, n := range visited {
			if n != 1 {
				t.Fatalf("k=%d: record %s visited %d times", k, id, n)
			}
			if !seeded[id] {
				t.Fatalf("k=%d: unexpected record %s", k, id)
			}
		}
		for i := 1; i < len(order); i++ {
			if order[i-1] >= order[i] {
				t.Fatalf("k=%d: unstable order at %d: %s >= %s", k, i, order[i-1], order[i])
			}
		}
	}
}

func TestWherePredicatesAndPagination(t *testing.T) {
	s, ctx := newActivityStore(t)

	for i := 0; i < 9; i++ {
		user := "u1"
		if i%3 == 0 {
			user = "u2"
		}
		if _, err := s.Create(ctx, &domain.Activity{UserID: user, Score: float64(i * 10), CompletionRate: 1}, ""); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	visited := map[string]bool{}
	cursor := ""
	for {
		page, err := s.Where(ctx, "user_id", "==", "u1", 2, cursor)
		if err != nil {
			t.Fatalf("Where: %v", err)
		}
		for _, item := range page.Items {
			if item.UserID != "u1" {
				t.Fatalf("predicate violated: got user %q", item.UserID)
			}
			if visited[item.ID] {
				t.Fatalf("record %s visited twice", item.ID)
			}
			visited[item.ID] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if len(visited) != 6 {
		t.Fatalf("expected 6 u1 activities, got %d", len(visited))
	}

	ge, err := s.Where(ctx, "score", ">=", 50, 100, "")
	if err != nil {
		t.Fatalf("Where(score >= 50): %v", err)
	}
	for _, item := range ge.Items {
		if item.Score < 50 {
			t.Fatalf("score predicate violated: %v", item.Score)
		}
	}
	if len(ge.Items) != 4 {
		t.Fatalf("expected 4 records with score >= 50, got %d", len(ge.Items))
	}

	ne, err := s.Where(ctx, "user_id", "!=", "u1", 100, "")
	if err != nil {
		t.Fatalf("Where(!=): %v", err)
	}
	if len(ne.Items) != 3 {
		t.Fatalf("expected 3 non-u1 records, got %d", len(ne.Items))
	}

	if _, err := s.Where(ctx, "user_id", "~", "u1", 10, ""); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("bad operator: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := s.Where(ctx, "user_id; DROP TABLE", "==", "u1", 10, ""); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("bad field: expected ErrInvalidArgument, got %v", err)
	}
}

func TestPurgeWhereCompleteness(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	s := store.New[domain.Module](db, testutil.Logger(t), store.Descriptor{Collection: "modules"})

	var targets []*domain.Module
	for i := 0; i < 12; i++ {
		m, err := s.Create(ctx, &domain.Module{SubjectID: "subj-a", Title: fmt.Sprintf("A%d", i)}, "")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		targets = append(targets, m)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Create(ctx, &domain.Module{SubjectID: "subj-b", Title: fmt.Sprintf("B%d", i)}, ""); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	// a purge must also remove records already soft-deleted
	if err := s.Delete(ctx, targets[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, targets[1].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	count, err := s.PurgeWhere(ctx, "subject_id", "==", "subj-a")
	if err != nil {
		t.Fatalf("PurgeWhere: %v", err)
	}
	if count != 12 {
		t.Fatalf("expected purge count 12, got %d", count)
	}

	remaining, err := s.GetAll(ctx, store.All, 100, "")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(remaining.Items) != 3 {
		t.Fatalf("expected 3 surviving records, got %d", len(remaining.Items))
	}
	for _, item := range remaining.Items {
		if item.SubjectID != "subj-b" {
			t.Fatalf("unexpected survivor: %+v", item)
		}
	}

	again, err := s.PurgeWhere(ctx, "subject_id", "==", "subj-a")
	if err != nil {
		t.Fatalf("PurgeWhere(again): %v", err)
	}
	if again != 0 {
		t.Fatalf("expected idempotent second purge to delete 0, got %d", again)
	}
}

func TestDeletePermanent(t *testing.T) {
	s, ctx := newActivityStore(t)

	created, err := s.Create(ctx, &domain.Activity{UserID: "u1", Score: 10, CompletionRate: 0.1}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := s.DeletePermanent(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeletePermanent: %v", err)
	}
	if !ok {
		t.Fatal("expected true for existing record")
	}
	ok, err = s.DeletePermanent(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeletePermanent(missing): %v", err)
	}
	if ok {
		t.Fatal("expected false for missing record")
	}
}

func TestReadSkipsInvalidRecords(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	s := store.New[domain.Activity](db, testutil.Logger(t), store.Descriptor{Collection: "activities"})

	good, err := s.Create(ctx, &domain.Activity{UserID: "u1", Score: 50, CompletionRate: 0.5}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// write a corrupt row underneath the store: score outside [0,100]
	bad := &domain.Activity{UserID: "u1", Score: 150, CompletionRate: 0.5}
	bad.ID = "zzz-corrupt"
	bad.MarkCreated(time.Now().UTC())
	if err := db.Create(bad).Error; err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	page, err := s.GetAll(ctx, store.NonDeleted, 10, "")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != good.ID {
		t.Fatalf("expected only the valid record, got %d items", len(page.Items))
	}
	// cursor still advances past the corrupt row so the scan cannot stall
	if page.NextCursor != bad.ID {
		t.Fatalf("expected cursor to advance over the corrupt row, got %q", page.NextCursor)
	}

	got, err := s.Get(ctx, bad.ID, false)
	if err != nil {
		t.Fatalf("Get(corrupt): %v", err)
	}
	if got != nil {
		t.Fatal("expected corrupt record to read as missing, not as an error")
	}
}
