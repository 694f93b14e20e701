package services

import (
	"context"

	"budgetwise/internal/core"
	"budgetwise/internal/storage"
)

// NotificationService reads the notifications and achievements the worker
// produces.
type NotificationService struct {
	repo *storage.SQLiteRepository
}

func NewNotificationService(repo *storage.SQLiteRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the notifications newest first, and the same set grouped by day.
func (s *NotificationService) List(ctx context.Context, userID int64) ([]core.Notification, []core.NotificationGroup, error) {
	ns, err := s.repo.ListNotifications(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	groups := core.GroupNotificationsByDate(ns)
	if groups == nil {
		groups = []core.NotificationGroup{}
	}
	return ns, groups, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkNotificationRead(ctx, userID, id)
}

func (s *NotificationService) Achievements(ctx context.Context, userID int64) ([]core.Achievement, error) {
	return s.repo.ListAchievements(ctx, userID)
}
