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

// MemberInput is the writable part of a member. On update, zero values keep the stored value.
type MemberInput struct {
	Name           string
	Email          string
	DateOfBirth    string
	RoleID         uint
	ProfilePicture string
}

// MemberService manages members and records every change in the activity log.
type MemberService interface {
	Create(ctx context.Context, in MemberInput, actingUserID uint) (*models.Member, error)
	List(ctx context.Context, page, limit int, includeDeleted bool) (*models.Page[models.Member], error)
	Get(ctx context.Context, id uint, includeDeleted bool) (*models.Member, error)
	Update(ctx context.Context, id uint, in MemberInput, actingUserID uint) (*models.Member, error)
	Delete(ctx context.Context, id uint, actingUserID uint) error
}

type memberServiceImpl struct {
	members repositories.MemberRepository
	roles   repositories.RoleRepository
	users   repositories.UserRepository
	audit   *auditTrail
	logger  *zap.Logger
	now     func() time.Time
}

// NewMemberService creates a new MemberService
func NewMemberService(
	members repositories.MemberRepository,
	roles repositories.RoleRepository,
	users repositories.UserRepository,
	activity repositories.ActivityRepository,
	m *metrics.Registry,
	logger *zap.Logger,
) MemberService {
	return &memberServiceImpl{
		members: members,
		roles:   roles,
		users:   users,
		audit:   newAuditTrail(activity, logger, m),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func validateDateOfBirth(dob string) error {
	if _, err := time.Parse(models.DateOfBirthLayout, dob); err != nil {
		return fmt.Errorf("%w: date_of_birth must be formatted as YYYY-MM-DD", ErrValidation)
	}
	return nil
}

// requireLiveRole fails with ErrRoleNotFound unless id names a non-deleted role.
func requireLiveRole(ctx context.Context, roles repositories.RoleRepository, id uint) error {
	role, err := roles.FindByID(ctx, id, false)
	if err != nil {
		return fmt.Errorf("failed to look up role: %w", err)
	}
	if role == nil {
		return ErrRoleNotFound
	}
	return nil
}

func requireUser(ctx context.Context, users repositories.UserRepository, id uint) error {
	user, err := users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}

func (s *memberServiceImpl) Create(ctx context.Context, in MemberInput, actingUserID uint) (*models.Member, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.DateOfBirth == "" || in.RoleID == 0 {
		return nil, fmt.Errorf("%w: name, email, date_of_birth and role_id are required", ErrValidation)
	}
	if err := validateDateOfBirth(in.DateOfBirth); err != nil {
		return nil, err
	}
	if err := requireLiveRole(ctx, s.roles, in.RoleID); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, s.users, actingUserID); err != nil {
		return nil, err
	}

	member := &models.Member{
		Name:           in.Name,
		Email:          in.Email,
		DateOfBirth:    in.DateOfBirth,
		RoleID:         in.RoleID,
		ProfilePicture: in.ProfilePicture,
		CreatedBy:      actingUserID,
	}
	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, repositories.ErrUniqueViolation) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	s.audit.record(ctx, actingUserID, models.SubjectMember, member.ID, models.ActionMemberCreated)
	s.logger.Info("Member created", zap.Uint("memberID", member.ID), zap.Uint("userID", actingUserID))

	return s.reload(ctx, member)
}

func (s *memberServiceImpl) List(ctx context.Context, page, limit int, includeDeleted bool) (*models.Page[models.Member], error) {
	page, limit = models.NormalizePage(page, limit)
	items, total, err := s.members.List(ctx, models.Offset(page, limit), limit, includeDeleted)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Member{}
	}
	return &models.Page[models.Member]{
		Items:        items,
		TotalRecords: total,
		CurrentPage:  page,
		TotalPages:   models.TotalPages(total, limit),
	}, nil
}

func (s *memberServiceImpl) Get(ctx context.Context, id uint, includeDeleted bool) (*models.Member, error) {
	member, err := s.members.FindByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// Update applies the non-empty fields of in. An empty string or zero id cannot clear a field.
func (s *memberServiceImpl) Update(ctx context.Context, id uint, in MemberInput, actingUserID uint) (*models.Member, error) {
	member, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		member.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
		member.Email = email
	}
	if in.DateOfBirth != "" {
		if err := validateDateOfBirth(in.DateOfBirth); err != nil {
			return nil, err
		}
		member.DateOfBirth = in.DateOfBirth
	}
	if in.RoleID != 0 && in.RoleID != member.RoleID {
		if err := requireLiveRole(ctx, s.roles, in.RoleID); err != nil {
			return nil, err
		}
		member.RoleID = in.RoleID
		member.Role = nil
	}
	if in.ProfilePicture != "" {
		member.ProfilePicture = in.ProfilePicture
	}

	if err := s.members.Save(ctx, member); err != nil {
		if errors.Is(err, repositories.ErrUniqueViolation) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	s.audit.record(ctx, actingUserID, models.SubjectMember, member.ID, models.ActionMemberUpdated)
	s.logger.Info("Member updated", zap.Uint("memberID", member.ID), zap.Uint("userID", actingUserID))

	return s.reload(ctx, member)
}

func (s *memberServiceImpl) Delete(ctx context.Context, id uint, actingUserID uint) error {
	if err := s.members.SoftDelete(ctx, id, s.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	s.audit.record(ctx, actingUserID, models.SubjectMember, id, models.ActionMemberDeleted)
	s.logger.Info("Member deleted", zap.Uint("memberID", id), zap.Uint("userID", actingUserID))
	return nil
}

// reload refetches member with its role and creator; it falls back to the written row.
func (s *memberServiceImpl) reload(ctx context.Context, member *models.Member) (*models.Member, error) {
	fresh, err := s.members.FindByID(ctx, member.ID, true)
	if err != nil || fresh == nil {
		s.logger.Warn("Could not reload member after write", zap.Uint("memberID", member.ID), zap.Error(err))
		return member, nil
	}
	return fresh, nil
}
