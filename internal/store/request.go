// Package store is the persistence layer: approval requests, the order
// queue, and device tokens. Every call runs under the shared DB timeout.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Possessed66/BotLMKRD/app"
	"github.com/Possessed66/BotLMKRD/internal/model"
	"github.com/Possessed66/BotLMKRD/internal/notify"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrAlreadyDecided = errors.New("request already decided")
)

// RequestStore is the source of truth for approval requests.
type RequestStore struct {
	db *gorm.DB
}

func NewRequestStore(db *gorm.DB) *RequestStore {
	return &RequestStore{db: db}
}

func (s *RequestStore) Create(ctx context.Context, req *model.ApprovalRequest) error {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		logrus.WithError(err).WithField("user_id", req.UserID).Error("Failed to create approval request")
		return fmt.Errorf("create approval request: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"request_id": req.RequestID,
		"user_id":    req.UserID,
	}).Info("Approval request created")
	return nil
}

func (s *RequestStore) Get(ctx context.Context, requestID string) (*model.ApprovalRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	var req model.ApprovalRequest
	err := s.db.WithContext(ctx).Where("request_id = ?", requestID).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get approval request %s: %w", requestID, err)
	}
	return &req, nil
}

// PendingForUser returns the newest pending request of a user, or ErrNotFound.
// Nothing stops a second pending request from being created while one exists;
// this lookup is the only guard available to callers.
func (s *RequestStore) PendingForUser(ctx context.Context, userID int64) (*model.ApprovalRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	var req model.ApprovalRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.RequestPending).
		Order("created_at DESC").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pending request for user %d: %w", userID, err)
	}
	return &req, nil
}

// SetApproverMessage records the handle of the approver-facing notification.
func (s *RequestStore) SetApproverMessage(ctx context.Context, requestID string, ref notify.MessageRef) error {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	raw, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshal approver message ref: %w", err)
	}
	err = s.db.WithContext(ctx).
		Model(&model.ApprovalRequest{}).
		Where("request_id = ?", requestID).
		Update("approver_message", raw).Error
	if err != nil {
		return fmt.Errorf("set approver message for %s: %w", requestID, err)
	}
	return nil
}

// Decide moves a pending request to a terminal status. The transition is
// guarded in SQL: concurrent duplicate decisions race on the status column
// and only one of them wins, the rest get ErrAlreadyDecided.
func (s *RequestStore) Decide(ctx context.Context, requestID string, status model.RequestStatus, rejectReason *string) error {
	if status != model.RequestApproved && status != model.RequestRejected {
		return fmt.Errorf("decide: %q is not a terminal status", status)
	}

	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	updates := map[string]interface{}{
		"status": status,
	}
	if rejectReason != nil {
		updates["reject_reason"] = *rejectReason
	}

	res := s.db.WithContext(ctx).
		Model(&model.ApprovalRequest{}).
		Where("request_id = ? AND status = ?", requestID, model.RequestPending).
		Updates(updates)
	if res.Error != nil {
		logrus.WithError(res.Error).WithField("request_id", requestID).Error("Failed to update approval request status")
		return fmt.Errorf("decide request %s: %w", requestID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyDecided
	}

	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"status":     status,
	}).Info("Approval request decided")
	return nil
}

func (s *RequestStore) Delete(ctx context.Context, requestID string) error {
	ctx, cancel := context.WithTimeout(ctx, app.DBTimeout)
	defer cancel()

	res := s.db.WithContext(ctx).Where("request_id = ?", requestID).Delete(&model.ApprovalRequest{})
	if res.Error != nil {
		return fmt.Errorf("delete request %s: %w", requestID, res.Error)
	}
	if res.RowsAffected == 0 {
		logrus.WithField("request_id", requestID).Warn("Approval request not found for deletion")
	}
	return nil
}
