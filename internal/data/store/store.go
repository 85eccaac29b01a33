package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avilacode/bloomtrack-backend/internal/domain"
	errs "github.com/avilacode/bloomtrack-backend/internal/pkg/errors"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

// DeletedStatus selects which records a listing returns with respect to the
// soft-delete flag.
type DeletedStatus string

const (
	NonDeleted  DeletedStatus = "non-deleted"
	DeletedOnly DeletedStatus = "deleted-only"
	All         DeletedStatus = "all"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000

	// PurgeBatchSize caps how many rows one purge batch deletes. Batches
	// commit independently; a crash mid-purge leaves a partial result.
	PurgeBatchSize = 500
)

// RecordValidator checks one loaded record. Read paths recover locally from
// a failure: the record is logged and skipped, never failing the operation.
type RecordValidator func(record any) error

// Descriptor binds a Store to its collection and validation strategy.
type Descriptor struct {
	Collection string
	Validate   RecordValidator
}

// Page is one keyset-paginated slice of a collection. NextCursor is the id
// of the last row scanned; pass it back to continue, empty means first page.
type Page[T any] struct {
	Items      []*T
	NextCursor string
}

// Store is a generic repository over one collection. Lifecycle capability
// (soft delete, timestamps) is decided once at construction: kinds whose
// pointer type implements domain.Lifecycle get soft-delete semantics,
// everything else is hard-deleted.
type Store[T any] struct {
	db         *gorm.DB
	log        *logger.Logger
	collection string
	validate   RecordValidator
	lifecycle  bool
}

func New[T any](db *gorm.DB, baseLog *logger.Logger, desc Descriptor) *Store[T] {
	var probe T
	if _, ok := any(&probe).(domain.Entity); !ok {
		panic(fmt.Sprintf("store: %T does not embed domain.Keyed or domain.Tracked", probe))
	}
	_, lifecycle := any(&probe).(domain.Lifecycle)

	v := desc.Validate
	if v == nil {
		v = StructValidator
	}
	return &Store[T]{
		db:         db,
		log:        baseLog.With("store", desc.Collection),
		collection: desc.Collection,
		validate:   v,
		lifecycle:  lifecycle,
	}
}

// Collection returns the collection name the store is bound to.
func (s *Store[T]) Collection() string { return s.collection }

// Lifecycle reports whether the entity kind tracks soft-delete fields.
func (s *Store[T]) Lifecycle() bool { return s.lifecycle }

// GetAll returns at most limit records filtered by deleted status, plus the
// cursor for the next page. Records failing validation are logged and
// skipped; the cursor still advances past them so one bad row cannot stall
// a scan.
func (s *Store[T]) GetAll(ctx context.Context, status DeletedStatus, limit int, cursor string) (Page[T], error) {
	limit = clampLimit(limit)

	q := s.db.WithContext(ctx).Table(s.collection)
	if s.lifecycle {
		switch status {
		case DeletedOnly:
			q = q.Where("deleted = ?", true)
		case All:
		default:
			q = q.Where("deleted = ?", false)
		}
	}
	if cursor != "" {
		q = q.Where("id > ?", cursor)
	}

	var rows []*T
	if err := q.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return Page[T]{}, fmt.Errorf("get all %s: %w", s.collection, err)
	}
	return s.page(rows), nil
}

// Get fetches one record by id. Returns nil (not an error) when the record
// is missing, soft-deleted (unless includeDeleted), or fails validation.
func (s *Store[T]) Get(ctx context.Context, id string, includeDeleted bool) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("get %s: empty id: %w", s.collection, errs.ErrInvalidArgument)
	}

	var row T
	err := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", s.collection, id, err)
	}

	if s.lifecycle && !includeDeleted {
		if any(&row).(domain.Lifecycle).IsDeleted() {
			return nil, nil
		}
	}
	if err := s.validate(&row); err != nil {
		s.log.Warn("Record failed validation, treating as missing", "id", id, "error", err)
		return nil, nil
	}
	return &row, nil
}

// Create persists a new record. The caller-supplied id wins when given,
// otherwise an opaque generated id is used. Lifecycle kinds get created_at
// and deleted=false stamped.
func (s *Store[T]) Create(ctx context.Context, record *T, explicitID string) (*T, error) {
	if record == nil {
		return nil, fmt.Errorf("create %s: nil record: %w", s.collection, errs.ErrInvalidArgument)
	}
	ent := any(record).(domain.Entity)
	if explicitID != "" {
		ent.SetID(explicitID)
	} else if ent.GetID() == "" {
		ent.SetID(uuid.NewString())
	}
	if lc, ok := any(record).(domain.Lifecycle); ok {
		lc.MarkCreated(time.Now().UTC())
	}

	if err := s.db.WithContext(ctx).Table(s.collection).Create(record).Error; err != nil {
		return nil, fmt.Errorf("create %s: %w", s.collection, err)
	}
	return record, nil
}

// Update applies a merge patch to an existing record and returns the
// reloaded row. Lifecycle kinds get updated_at stamped unless the caller
// already supplied one. Missing ids surface ErrNotFound.
func (s *Store[T]) Update(ctx context.Context, id string, patch map[string]any) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("update %s: empty id: %w", s.collection, errs.ErrInvalidArgument)
	}
	if err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}

	updates := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		if k == "id" {
			continue // ids are immutable once assigned
		}
		updates[k] = v
	}
	if s.lifecycle {
		if _, ok := updates["updated_at"]; !ok {
			updates["updated_at"] = time.Now().UTC()
		}
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update %s/%s: %w", s.collection, id, err)
		}
	}

	var row T
	if err := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, fmt.Errorf("update %s/%s: reload: %w", s.collection, id, err)
	}
	return &row, nil
}

// Delete soft-deletes lifecycle-tracked records and hard-deletes the rest.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete %s: empty id: %w", s.collection, errs.ErrInvalidArgument)
	}
	if err := s.mustExist(ctx, id); err != nil {
		return err
	}

	if s.lifecycle {
		stamp := map[string]any{
			"deleted":    true,
			"deleted_at": time.Now().UTC(),
		}
		if err := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).Updates(stamp).Error; err != nil {
			return fmt.Errorf("delete %s/%s: %w", s.collection, id, err)
		}
		return nil
	}
	if err := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("delete %s/%s: %w", s.collection, id, err)
	}
	return nil
}

// Restore clears the soft-delete stamp. Kinds without lifecycle tracking
// surface ErrLifecycleUnsupported.
func (s *Store[T]) Restore(ctx context.Context, id string) (*T, error) {
	if !s.lifecycle {
		return nil, fmt.Errorf("restore %s: %w", s.collection, errs.ErrLifecycleUnsupported)
	}
	if id == "" {
		return nil, fmt.Errorf("restore %s: empty id: %w", s.collection, errs.ErrInvalidArgument)
	}
	if err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}

	stamp := map[string]any{
		"deleted":    false,
		"deleted_at": nil,
		"updated_at": time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).Updates(stamp).Error; err != nil {
		return nil, fmt.Errorf("restore %s/%s: %w", s.collection, id, err)
	}

	var row T
	if err := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, fmt.Errorf("restore %s/%s: reload: %w", s.collection, id, err)
	}
	return &row, nil
}

// Where lists records matching one field predicate under the same keyset
// pagination contract as GetAll. Soft-deleted records are excluded in the
// query itself for lifecycle kinds.
func (s *Store[T]) Where(ctx context.Context, field, op string, value any, limit int, cursor string) (Page[T], error) {
	cond, err := s.condition(field, op)
	if err != nil {
		return Page[T]{}, err
	}
	limit = clampLimit(limit)

	q := s.db.WithContext(ctx).Table(s.collection).Where(cond, value)
	if s.lifecycle {
		q = q.Where("deleted = ?", false)
	}
	if cursor != "" {
		q = q.Where("id > ?", cursor)
	}

	var rows []*T
	if err := q.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return Page[T]{}, fmt.Errorf("where %s: %w", s.collection, err)
	}
	return s.page(rows), nil
}

// PurgeWhere hard-deletes every record matching the predicate, soft-deleted
// or not, in independently committed batches of at most PurgeBatchSize.
// The returned count reflects what was actually deleted before any failure;
// failed batches are not retried.
func (s *Store[T]) PurgeWhere(ctx context.Context, field, op string, value any) (int, error) {
	cond, err := s.condition(field, op)
	if err != nil {
		return 0, err
	}

	var ids []string
	if err := s.db.WithContext(ctx).Table(s.collection).Where(cond, value).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("purge %s: collect ids: %w", s.collection, err)
	}

	deleted := 0
	for start := 0; start < len(ids); start += PurgeBatchSize {
		end := min(start+PurgeBatchSize, len(ids))
		res := s.db.WithContext(ctx).Table(s.collection).Where("id IN ?", ids[start:end]).Delete(new(T))
		if res.Error != nil {
			return deleted, fmt.Errorf("purge %s: batch at %d: %w", s.collection, start, res.Error)
		}
		deleted += int(res.RowsAffected)
	}

	if deleted > 0 {
		s.log.Info("Purged records", "count", deleted, "field", field, "op", op)
	}
	return deleted, nil
}

// DeletePermanent hard-deletes one record regardless of its soft-delete
// flag. Returns false when the record did not exist.
func (s *Store[T]) DeletePermanent(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("delete permanent %s: empty id: %w", s.collection, errs.ErrInvalidArgument)
	}
	res := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return false, fmt.Errorf("delete permanent %s/%s: %w", s.collection, id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store[T]) mustExist(ctx context.Context, id string) error {
	var count int64
	if err := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("%s/%s: %w", s.collection, id, err)
	}
	if count == 0 {
		return fmt.Errorf("%s/%s: %w", s.collection, id, errs.ErrNotFound)
	}
	return nil
}

func (s *Store[T]) page(rows []*T) Page[T] {
	p := Page[T]{Items: make([]*T, 0, len(rows))}
	if len(rows) == 0 {
		return p
	}
	// cursor advances over the raw rows so invalid records are still passed
	p.NextCursor = any(rows[len(rows)-1]).(domain.Entity).GetID()
	for _, row := range rows {
		if err := s.validate(row); err != nil {
			s.log.Warn("Skipping record that failed validation",
				"id", any(row).(domain.Entity).GetID(), "error", err)
			continue
		}
		p.Items = append(p.Items, row)
	}
	return p
}

var sqlOps = map[string]string{
	"==": "=",
	"!=": "<>",
	">":  ">",
	">=": ">=",
	"<":  "<",
	"<=": "<=",
}

var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func (s *Store[T]) condition(field, op string) (string, error) {
	if !columnPattern.MatchString(field) {
		return "", fmt.Errorf("%s: bad field %q: %w", s.collection, field, errs.ErrInvalidArgument)
	}
	sqlOp, ok := sqlOps[op]
	if !ok {
		return "", fmt.Errorf("%s: bad operator %q: %w", s.collection, op, errs.ErrInvalidArgument)
	}
	return fmt.Sprintf("%s %s ?", field, sqlOp), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
