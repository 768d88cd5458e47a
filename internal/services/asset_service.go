package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/assetstore/backend/internal/apperror"
	"github.com/assetstore/backend/internal/config"
	"github.com/assetstore/backend/internal/models"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/pkg/validation"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssetOptions is the static configuration of an AssetService.
type AssetOptions struct {
	URLs    config.ObjectURLs
	Limits  UploadLimits
	MaxTake int
}

type AssetService struct {
	db      *gorm.DB
	store   ObjectStore
	urls    config.ObjectURLs
	limits  UploadLimits
	maxTake int
	log     *logger.Logger
}

func NewAssetService(db *gorm.DB, store ObjectStore, opts AssetOptions, log *logger.Logger) *AssetService {
	return &AssetService{
		db:      db,
		store:   store,
		urls:    opts.URLs,
		limits:  opts.Limits,
		maxTake: opts.MaxTake,
		log:     log.With("service", "AssetService"),
	}
}

type TranslationInput struct {
	Language string `json:"language" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Desc     string `json:"desc"`
}

type CreateAssetInput struct {
	Price    float64            `json:"price" binding:"gte=0"`
	Discount int                `json:"discount" binding:"gte=0"`
	Lang     []TranslationInput `json:"lang" binding:"required,min=1,dive"`
}

func (in CreateAssetInput) validate() error {
	if in.Price < 0 {
		return apperror.ValidationFailed("price", "price must not be negative")
	}
	if in.Discount < 0 {
		return apperror.ValidationFailed("discount", "discount must not be negative")
	}
	if len(in.Lang) == 0 {
		return apperror.ValidationFailed("lang", "at least one translation is required")
	}
	for _, t := range in.Lang {
		if !validation.ValidateLanguage(t.Language) {
			return apperror.ValidationFailed("lang.language", fmt.Sprintf("invalid language code %q", t.Language))
		}
		if strings.TrimSpace(t.Title) == "" {
			return apperror.ValidationFailed("lang.title", "title is required")
		}
	}
	return nil
}

// CreateAsset persists the asset together with its translations.
func (s *AssetService) CreateAsset(ctx context.Context, ownerUUID uuid.UUID, in CreateAssetInput) (*models.Asset, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	owner, err := findUser(db, "uuid = ?", ownerUUID, ownerUUID.String())
	if err != nil {
		return nil, err
	}

	translations := make([]models.AssetTranslation, 0, len(in.Lang))
	for _, t := range in.Lang {
		translations = append(translations, models.AssetTranslation{
			Language: strings.TrimSpace(t.Language),
			Title:    validation.SanitizeString(t.Title),
			Desc:     validation.SanitizeString(t.Desc),
		})
	}
	asset := &models.Asset{
		Price:        in.Price,
		Discount:     in.Discount,
		UserID:       owner.ID,
		Translations: translations,
	}
	if err := db.Omit("User").Create(asset).Error; err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}
	asset.User = owner
	s.log.Info("Asset created", "asset", asset.UUID, "owner", owner.UUID)
	return asset, nil
}

// GetAsset loads an asset with its owner and translations.
func (s *AssetService) GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Translations", func(db *gorm.DB) *gorm.DB { return db.Order("asset_translations.id") }).
		Where("uuid = ?", id).
		First(&asset).Error
	if err != nil {
		return nil, assetLookupError(err, id)
	}
	return &asset, nil
}

func assetLookupError(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("asset", id.String())
	}
	return fmt.Errorf("load asset: %w", err)
}

func loadAsset(db *gorm.DB, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := db.Where("uuid = ?", id).First(&asset).Error; err != nil {
		return nil, assetLookupError(err, id)
	}
	return &asset, nil
}

// SetFile uploads the primary file of an asset.
func (s *AssetService) SetFile(ctx context.Context, id uuid.UUID, file Upload) (*models.Asset, error) {
	if err := s.limits.checkFile(file); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	asset, err := loadAsset(db, id)
	if err != nil {
		return nil, err
	}
	key := fileKey(asset.UUID, file.Filename)
	url, err := s.store.Upload(ctx, key, bytes.NewReader(file.Data), file.ContentType())
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	if err := db.Model(asset).Update("file", url).Error; err != nil {
		discardUploads(ctx, s.store, s.log, []string{key})
		return nil, fmt.Errorf("store file url: %w", err)
	}
	asset.File = &url
	return asset, nil
}

// SetPictures replaces the preview pictures of an asset.
func (s *AssetService) SetPictures(ctx context.Context, id uuid.UUID, pictures []Upload) (*models.Asset, error) {
	if err := s.limits.checkPictures(pictures); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	asset, err := loadAsset(db, id)
	if err != nil {
		return nil, err
	}
	urls, keys, err := uploadBatch(ctx, s.store, s.log, pictures, func(u Upload) string { return PictureKey(asset.UUID, u.Filename) })
	if err != nil {
		return nil, err
	}
	list := datatypes.JSONSlice[string](urls)
	if err := db.Model(asset).Update("pictures", list).Error; err != nil {
		discardUploads(ctx, s.store, s.log, keys)
		return nil, fmt.Errorf("store pictures: %w", err)
	}
	asset.Pictures = list
	return asset, nil
}

// AssertOwnership returns the asset, with its owner loaded, if the user
// behind sub owns it.
func (s *AssetService) AssertOwnership(ctx context.Context, sub string, id uuid.UUID) (*models.Asset, error) {
	return assertOwnership(s.db.WithContext(ctx), sub, id)
}

// assertOwnership resolves sub to a user and checks it owns the asset. db may
// carry a row lock clause, which then applies to the asset row only.
func assertOwnership(db *gorm.DB, sub string, id uuid.UUID) (*models.Asset, error) {
	user, err := findUser(db.Session(&gorm.Session{NewDB: true}), "auth0_sub = ?", sub, sub)
	if err != nil {
		return nil, err
	}
	asset, err := loadAsset(db, id)
	if err != nil {
		return nil, err
	}
	if !asset.OwnedBy(user) {
		return nil, apperror.Forbidden(fmt.Sprintf("asset %s does not belong to the caller", id))
	}
	asset.User = user
	return asset, nil
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// AddPictures uploads pictures and appends their URLs to the asset. Uploads
// run sequentially; if one fails, the earlier ones are discarded and nothing
// is persisted.
func (s *AssetService) AddPictures(ctx context.Context, id uuid.UUID, sub string, pictures []Upload) (*models.Asset, error) {
	if err := s.limits.checkPictures(pictures); err != nil {
		return nil, err
	}
	if _, err := s.AssertOwnership(ctx, sub, id); err != nil {
		return nil, err
	}

	urls, keys, err := uploadBatch(ctx, s.store, s.log, pictures, func(u Upload) string { return PictureKey(id, u.Filename) })
	if err != nil {
		return nil, err
	}

	var asset *models.Asset
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := assertOwnership(lockForUpdate(tx), sub, id)
		if err != nil {
			return err
		}
		a.Pictures = append(a.Pictures, urls...)
		if err := tx.Model(a).Update("pictures", a.Pictures).Error; err != nil {
			return fmt.Errorf("store pictures: %w", err)
		}
		asset = a
		return nil
	})
	if err != nil {
		discardUploads(ctx, s.store, s.log, keys)
		return nil, err
	}
	s.log.Info("Pictures added", "asset", id, "count", len(urls))
	return asset, nil
}

// RemovePicture drops the first picture whose URL is built from pictureID.
// An unknown picture leaves the asset unchanged and is not an error.
func (s *AssetService) RemovePicture(ctx context.Context, id uuid.UUID, pictureID, sub string) (*models.Asset, error) {
	target := s.urls.URL(pictureID)
	var asset *models.Asset
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := assertOwnership(lockForUpdate(tx), sub, id)
		if err != nil {
			return err
		}
		asset = a
		idx := slices.Index(a.Pictures, target)
		if idx < 0 {
			s.log.Warn("Picture to remove not found on asset; nothing changed", "asset", id, "picture", pictureID, "url", target)
			return nil
		}
		a.Pictures = slices.Delete(slices.Clone(a.Pictures), idx, idx+1)
		if err := tx.Model(a).Update("pictures", a.Pictures).Error; err != nil {
			return fmt.Errorf("store pictures: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// DeleteAsset removes an asset owned by the caller, translations included.
func (s *AssetService) DeleteAsset(ctx context.Context, id uuid.UUID, sub string) (int64, error) {
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := assertOwnership(lockForUpdate(tx), sub, id)
		if err != nil {
			return err
		}
		if err := tx.Where("asset_id = ?", asset.ID).Delete(&models.AssetTranslation{}).Error; err != nil {
			return fmt.Errorf("delete translations: %w", err)
		}
		res := tx.Where("id = ? AND user_id = ?", asset.ID, asset.UserID).Delete(&models.Asset{})
		if res.Error != nil {
			return fmt.Errorf("delete asset: %w", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, apperror.BadRequest(fmt.Sprintf("can't delete asset %s", id))
	}
	s.log.Info("Asset deleted", "asset", id)
	return affected, nil
}
