package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"member-admin-api/internal/metrics"
	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"

	"go.uber.org/zap"
)

// RoleInput is the writable part of a role. On update, empty strings keep the stored value.
type RoleInput struct {
	Name        string
	Description string
}

// RoleService manages roles and records every change in the activity log.
type RoleService interface {
	// Create stores a role. actingUserID 0 is reserved for system seeding and skips the audit entry.
	Create(ctx context.Context, in RoleInput, actingUserID uint) (*models.Role, error)
	List(ctx context.Context, page, limit int, includeDeleted bool) (*models.Page[models.Role], error)
	Get(ctx context.Context, id uint, includeDeleted bool) (*models.Role, error)
	Update(ctx context.Context, id uint, in RoleInput, actingUserID uint) (*models.Role, error)
	Delete(ctx context.Context, id uint, actingUserID uint) error
}

type roleServiceImpl struct {
	roles  repositories.RoleRepository
	users  repositories.UserRepository
	audit  *auditTrail
	logger *zap.Logger
	now    func() time.Time
}

// NewRoleService creates a new RoleService
func NewRoleService(
	roles repositories.RoleRepository,
	users repositories.UserRepository,
	activity repositories.ActivityRepository,
	m *metrics.Registry,
	logger *zap.Logger,
) RoleService {
	return &roleServiceImpl{
		roles:  roles,
		users:  users,
		audit:  newAuditTrail(activity, logger, m),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *roleServiceImpl) Create(ctx context.Context, in RoleInput, actingUserID uint) (*models.Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	role := &models.Role{Name: in.Name, Description: strings.TrimSpace(in.Description)}
	if actingUserID != 0 {
		if err := requireUser(ctx, s.users, actingUserID); err != nil {
			return nil, err
		}
		creator := actingUserID
		role.CreatedBy = &creator
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	if actingUserID != 0 {
		s.audit.record(ctx, actingUserID, models.SubjectRole, role.ID, models.ActionRoleCreated)
	}
	s.logger.Info("Role created", zap.Uint("roleID", role.ID), zap.String("name", role.Name), zap.Uint("userID", actingUserID))
	return role, nil
}

func (s *roleServiceImpl) List(ctx context.Context, page, limit int, includeDeleted bool) (*models.Page[models.Role], error) {
	page, limit = models.NormalizePage(page, limit)
	items, total, err := s.roles.List(ctx, models.Offset(page, limit), limit, includeDeleted)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Role{}
	}
	return &models.Page[models.Role]{
		Items:        items,
		TotalRecords: total,
		CurrentPage:  page,
		TotalPages:   models.TotalPages(total, limit),
	}, nil
}

func (s *roleServiceImpl) Get(ctx context.Context, id uint, includeDeleted bool) (*models.Role, error) {
	role, err := s.roles.FindByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

// Update applies the non-empty fields of in.
func (s *roleServiceImpl) Update(ctx context.Context, id uint, in RoleInput, actingUserID uint) (*models.Role, error) {
	role, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		role.Name = name
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		role.Description = desc
	}
	if err := s.roles.Save(ctx, role); err != nil {
		return nil, err
	}
	s.audit.record(ctx, actingUserID, models.SubjectRole, role.ID, models.ActionRoleUpdated)
	s.logger.Info("Role updated", zap.Uint("roleID", role.ID), zap.Uint("userID", actingUserID))
	return role, nil
}

// Delete soft-deletes the role. Members and users that reference it keep the reference.
func (s *roleServiceImpl) Delete(ctx context.Context, id uint, actingUserID uint) error {
	if err := s.roles.SoftDelete(ctx, id, s.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	s.audit.record(ctx, actingUserID, models.SubjectRole, id, models.ActionRoleDeleted)
	s.logger.Info("Role deleted", zap.Uint("roleID", id), zap.Uint("userID", actingUserID))
	return nil
}
