package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/assetstore/backend/internal/apperror"
	"github.com/assetstore/backend/internal/models"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/pkg/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminRole is the identity-provider role allowed to block users.
const AdminRole = "admin"

// ErrNoIdentityManager is returned by identity operations when no
// management client is configured.
var ErrNoIdentityManager = errors.New("identity management is not configured")

type UserService struct {
	db       *gorm.DB
	store    ObjectStore
	limits   UploadLimits
	identity IdentityManager
	log      *logger.Logger
}

func NewUserService(db *gorm.DB, store ObjectStore, limits UploadLimits, log *logger.Logger) *UserService {
	return &UserService{db: db, store: store, limits: limits, log: log.With("service", "UserService")}
}

// SetIdentityManager enables BlockUser and UserRoles.
func (s *UserService) SetIdentityManager(m IdentityManager) {
	s.identity = m
}

// UserInput carries the client editable profile fields.
type UserInput struct {
	Nickname *string `json:"nickname"`
	Desc     *string `json:"desc"`
}

func (in UserInput) apply(u *models.User) error {
	if in.Nickname != nil {
		nick := validation.SanitizeString(*in.Nickname)
		if !validation.ValidateNickname(nick) {
			return apperror.ValidationFailed("nickname", "nickname must be 3-30 characters of letters, digits, '.', '_' or '-'")
		}
		u.Nickname = nick
	}
	if in.Desc != nil {
		u.Desc = validation.SanitizeString(*in.Desc)
	}
	return nil
}

// CreateUser registers the caller's subject as a marketplace user.
func (s *UserService) CreateUser(ctx context.Context, sub string, in UserInput) (*models.User, error) {
	if strings.TrimSpace(sub) == "" {
		return nil, apperror.ValidationFailed("sub", "subject is required")
	}
	user := &models.User{Auth0Sub: sub}
	if err := in.apply(user); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("auth0_sub = ?", sub).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check subject: %w", err)
	}
	if count > 0 {
		return nil, apperror.BadRequest("a user is already registered for this subject")
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("User created", "uuid", user.UUID)
	return user, nil
}

func (s *UserService) GetUserByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return findUser(s.db.WithContext(ctx), "uuid = ?", id, id.String())
}

func (s *UserService) GetUserBySub(ctx context.Context, sub string) (*models.User, error) {
	return findUser(s.db.WithContext(ctx), "auth0_sub = ?", sub, sub)
}

func findUser(db *gorm.DB, where string, arg interface{}, label string) (*models.User, error) {
	var user models.User
	if err := db.Where(where, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", label)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// UpdateUser applies the non-nil fields of in.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, in UserInput) (*models.User, error) {
	user, err := s.GetUserByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(user); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes the user; owned assets go with it.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) (int64, error) {
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.Asset{}).Select("id").Where("user_id IN (?)", tx.Model(&models.User{}).Select("id").Where("uuid = ?", id))
		if err := tx.Where("asset_id IN (?)", owned).Delete(&models.AssetTranslation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN (?)", owned).Delete(&models.Asset{}).Error; err != nil {
			return err
		}
		res := tx.Where("uuid = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return 0, apperror.BadRequest(fmt.Sprintf("can't find user with id %q", id))
	}
	s.log.Info("User deleted", "uuid", id)
	return affected, nil
}

// SetAvatar uploads the avatar picture and stores its URL on the user.
func (s *UserService) SetAvatar(ctx context.Context, id uuid.UUID, avatar Upload) (*models.User, error) {
	if err := s.limits.checkPicture(avatar); err != nil {
		return nil, err
	}
	user, err := s.GetUserByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	key := avatarKey(user.UUID, avatar.Filename)
	url, err := s.store.Upload(ctx, key, bytes.NewReader(avatar.Data), avatar.ContentType())
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", url).Error; err != nil {
		discardUploads(ctx, s.store, s.log, []string{key})
		return nil, fmt.Errorf("store avatar: %w", err)
	}
	user.Avatar = url
	return user, nil
}

// BlockUser blocks the user's subject at the identity provider. The local
// record and its assets are kept.
func (s *UserService) BlockUser(ctx context.Context, id uuid.UUID) error {
	if s.identity == nil {
		return ErrNoIdentityManager
	}
	user, err := s.GetUserByUUID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.identity.Block(ctx, user.Auth0Sub); err != nil {
		return fmt.Errorf("block user: %w", err)
	}
	s.log.Info("User blocked", "uuid", id)
	return nil
}

func (s *UserService) UserRoles(ctx context.Context, sub string) ([]models.Role, error) {
	if s.identity == nil {
		return nil, ErrNoIdentityManager
	}
	roles, err := s.identity.Roles(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("user roles: %w", err)
	}
	return roles, nil
}

// HasRole reports whether sub holds the named role.
func (s *UserService) HasRole(ctx context.Context, sub, name string) (bool, error) {
	roles, err := s.UserRoles(ctx, sub)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, name) {
			return true, nil
		}
	}
	return false, nil
}
