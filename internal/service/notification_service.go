package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService lists what a resident missed while offline.
type NotificationService struct {
	notifRepo repository.NotificationRepository
}

func NewNotificationService(notifRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifRepo: notifRepo}
}

func (s *NotificationService) ListUnread(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	notifications, err := s.notifRepo.ListUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.notifRepo.MarkRead(ctx, id)
}
