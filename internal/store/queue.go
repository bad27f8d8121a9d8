package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Possessed66/BotLMKRD/app"
	"github.com/Possessed66/BotLMKRD/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrQueueFull is returned by Enqueue when the optional admission threshold
// is configured and the backlog already sits at it.
var ErrQueueFull = errors.New("order queue is full")

// QueueStore is the source of truth for order delivery status and retries.
type QueueStore struct {
	db          *gorm.DB
	maxAttempts int
	maxDepth    int64
}

func NewQueueStore(db *gorm.DB, maxAttempts int, maxDepth int64) *QueueStore {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &QueueStore{db: db, maxAttempts: maxAttempts, maxDepth: maxDepth}
}

func (s *QueueStore) MaxAttempts() int { return s.maxAttempts }

// Enqueue durably appends a finalized order. A failed write here means the
// order exists nowhere else, so the caller must raise an operator alert
// immediately instead of swallowing the error.
func (s *QueueStore) Enqueue(ctx context.Context, userID int64, payload datatypes.JSON) (*model.QueueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	if s.maxDepth > 0 {
		depth, err := s.Depth(ctx)
		if err != nil {
			return nil, fmt.Errorf("check queue depth: %w", err)
		}
		if depth >= s.maxDepth {
			return nil, ErrQueueFull
		}
	}

	entry := &model.QueueEntry{
		UserID:  userID,
		Payload: payload,
		Status:  model.EntryPending,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to enqueue order")
		return nil, fmt.Errorf("enqueue order for user %d: %w", userID, err)
	}

	logrus.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"user_id":  userID,
	}).Info("Order added to queue")
	return entry, nil
}

// ClaimBatch returns up to limit eligible entries in FIFO order: pending
// entries plus failed ones that still have attempt budget left. Claiming does
// not flip status; a single worker instance is assumed (no compare-and-swap
// guard), running two workers concurrently is unsafe.
func (s *QueueStore) ClaimBatch(ctx context.Context, limit int) ([]model.QueueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	var entries []model.QueueEntry
	err := s.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND attempt_count < ?)",
			model.EntryPending, model.EntryFailed, s.maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("claim queue batch: %w", err)
	}
	return entries, nil
}

// UpdateStatus applies a status transition:
//   - completed: stamps processed_at, clears error_message
//   - failed: increments attempt_count and stores the error text
//   - pending/processing: only refreshes last_attempt_at
func (s *QueueStore) UpdateStatus(ctx context.Context, entryID int64, status model.EntryStatus, errorMessage string) error {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	now := time.Now()
	var updates map[string]interface{}

	switch status {
	case model.EntryCompleted:
		updates = map[string]interface{}{
			"status":          status,
			"processed_at":    &now,
			"last_attempt_at": &now,
			"error_message":   nil,
		}
	case model.EntryFailed:
		updates = map[string]interface{}{
			"status":          status,
			"attempt_count":   gorm.Expr("attempt_count + ?", 1),
			"error_message":   errorMessage,
			"last_attempt_at": &now,
		}
	default:
		updates = map[string]interface{}{
			"status":          status,
			"last_attempt_at": &now,
		}
	}

	res := s.db.WithContext(ctx).
		Model(&model.QueueEntry{}).
		Where("id = ?", entryID).
		Updates(updates)
	if res.Error != nil {
		logrus.WithError(res.Error).WithField("entry_id", entryID).Error("Failed to update queue entry status")
		return fmt.Errorf("update queue entry %d: %w", entryID, res.Error)
	}
	if res.RowsAffected == 0 {
		logrus.WithField("entry_id", entryID).Warn("Queue entry not found for status update")
		return ErrNotFound
	}
	return nil
}

// FailTerminally marks an entry failed with no attempt budget left. Used for
// permanent errors that would burn the whole retry budget to no effect.
func (s *QueueStore) FailTerminally(ctx context.Context, entryID int64, errorMessage string) error {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&model.QueueEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"status":          model.EntryFailed,
			"attempt_count":   gorm.Expr("CASE WHEN attempt_count + 1 > ? THEN attempt_count + 1 ELSE ? END", s.maxAttempts, s.maxAttempts),
			"error_message":   errorMessage,
			"last_attempt_at": &now,
		})
	if res.Error != nil {
		return fmt.Errorf("terminally fail queue entry %d: %w", entryID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns a single entry by id.
func (s *QueueStore) Get(ctx context.Context, entryID int64) (*model.QueueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	var entry model.QueueEntry
	err := s.db.WithContext(ctx).Where("id = ?", entryID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue entry %d: %w", entryID, err)
	}
	return &entry, nil
}

// Depth counts the not-yet-delivered backlog (pending + processing).
func (s *QueueStore) Depth(ctx context.Context) (int64, error) {
	var depth int64
	err := s.db.WithContext(ctx).
		Model(&model.QueueEntry{}).
		Where("status IN ?", []model.EntryStatus{model.EntryPending, model.EntryProcessing}).
		Count(&depth).Error
	if err != nil {
		return 0, fmt.Errorf("count queue depth: %w", err)
	}
	return depth, nil
}

// Stats returns entry counts per status with zeroes for absent statuses.
func (s *QueueStore) Stats(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&model.QueueEntry{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	stats := map[string]int64{
		string(model.EntryPending):    0,
		string(model.EntryProcessing): 0,
		string(model.EntryCompleted):  0,
		string(model.EntryFailed):     0,
	}
	for _, row := range rows {
		stats[row.Status] = row.Count
	}
	return stats, nil
}
