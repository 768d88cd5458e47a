package services

import (
	"context"
	"strings"
	"testing"

	"github.com/assetstore/backend/internal/models"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	ctx    context.Context
	db     *gorm.DB
	store  *testutil.MemoryStore
	users  *UserService
	assets *AssetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	store := testutil.NewMemoryStore()
	limits := UploadLimits{MaxPictureSize: 1024, MaxFileSize: 4096}
	log := logger.Nop()
	return &fixture{
		ctx:    context.Background(),
		db:     db,
		store:  store,
		users:  NewUserService(db, store, limits, log),
		assets: NewAssetService(db, store, AssetOptions{URLs: testutil.URLs, Limits: limits, MaxTake: 50}, log),
	}
}

func (f *fixture) user(t *testing.T, sub string) *models.User {
	t.Helper()
	nick := "user_" + sub[strings.LastIndex(sub, "|")+1:]
	u, err := f.users.CreateUser(f.ctx, sub, UserInput{Nickname: &nick})
	require.NoError(t, err)
	return u
}

func (f *fixture) asset(t *testing.T, owner *models.User, price float64, discount int, lang ...TranslationInput) *models.Asset {
	t.Helper()
	if len(lang) == 0 {
		lang = []TranslationInput{{Language: "en", Title: "Untitled", Desc: "no description"}}
	}
	a, err := f.assets.CreateAsset(f.ctx, owner.UUID, CreateAssetInput{Price: price, Discount: discount, Lang: lang})
	require.NoError(t, err)
	return a
}

func (f *fixture) reload(t *testing.T, a *models.Asset) *models.Asset {
	t.Helper()
	got, err := f.assets.GetAsset(f.ctx, a.UUID)
	require.NoError(t, err)
	return got
}

func jpegs(tags ...string) []Upload {
	out := make([]Upload, 0, len(tags))
	for _, tag := range tags {
		out = append(out, Upload{Filename: tag + ".jpg", Data: testutil.JPEG(tag)})
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func uuids(assets []models.Asset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.UUID.String())
	}
	return out
}
