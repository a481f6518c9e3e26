package reconcile

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"billing-service/internal/domain/workspaces"
)

func (s *Service) loadWorkspace(ctx context.Context, id string) (*workspaces.Workspace, error) {
	var ws workspaces.Workspace
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", id, err)
	}
	return &ws, nil
}

// Workspace returns the stored row for id.
func (s *Service) Workspace(ctx context.Context, id string) (*workspaces.Workspace, error) {
	return s.loadWorkspace(ctx, id)
}

// updateWorkspace applies updates only if the row still carries the version
// ws was read at, then advances ws.Version.
func (s *Service) updateWorkspace(ctx context.Context, ws *workspaces.Workspace, updates map[string]interface{}) error {
	updates["version"] = ws.Version + 1
	res := s.db.WithContext(ctx).
		Model(&workspaces.Workspace{}).
		Where("id = ? AND version = ?", ws.ID, ws.Version).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update workspace %s: %w", ws.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s at version %d", ErrVersionConflict, ws.ID, ws.Version)
	}
	ws.Version++
	return nil
}

func (s *Service) provisionedWorkspaces(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]workspaces.Workspace, error) {
	var list []workspaces.Workspace
	q := s.db.WithContext(ctx).
		Where("consumer_id IS NOT NULL AND subscription_id IS NOT NULL")
	if scope != nil {
		q = scope(q)
	}
	if err := q.Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return list, nil
}
