package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/assetstore/backend/internal/config"
	"github.com/assetstore/backend/internal/handlers"
	"github.com/assetstore/backend/internal/models"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/internal/services"
	"github.com/assetstore/backend/internal/testutil"
	"github.com/assetstore/backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type apiClient struct {
	t      *testing.T
	router   *gin.Engine
	store    *testutil.MemoryStore
	identity *testutil.MemoryIdentity
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Env:               "test",
		UploadMaxFileSize: 1 << 20,
		PageMaxTake:       50,
		AllowedOrigins:    []string{"http://localhost:3000"},
		AllowedMethods:    []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:    []string{"Authorization", "Content-Type"},
	}
	log := logger.Nop()
	db := testutil.NewDB(t)
	store := testutil.NewMemoryStore()
	limits := services.UploadLimits{MaxPictureSize: 1 << 16, MaxFileSize: 1 << 20}
	validator, err := jwt.NewValidator(jwt.Options{Secret: secret})
	require.NoError(t, err)

	assetService := services.NewAssetService(db, store, services.AssetOptions{URLs: testutil.URLs, Limits: limits, MaxTake: cfg.PageMaxTake}, log)
	userService := services.NewUserService(db, store, limits, log)
	identity := testutil.NewMemoryIdentity()
	userService.SetIdentityManager(identity)

	router := NewRouter(RouterConfig{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		Validator:    validator,
		AssetHandler: handlers.NewAssetHandler(assetService, log),
		UserHandler:  handlers.NewUserHandler(userService, log),
	})
	return &apiClient{t: t, router: router, store: store, identity: identity}
}

func (a *apiClient) do(sub, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sub != "" {
		token, err := jwt.GenerateToken(sub, secret, time.Minute)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *apiClient) json(sub, method, path string, payload interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(a.t, err)
		body = bytes.NewReader(raw)
	}
	return a.do(sub, method, path, body, "application/json")
}

func (a *apiClient) upload(sub, path, field string, files map[string][]byte, order ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(a.t, err)
		_, err = part.Write(files[name])
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())
	return a.do(sub, http.MethodPost, path, &buf, mw.FormDataContentType())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *apiClient) register(sub, nickname string) models.User {
	a.t.Helper()
	w := a.json(sub, http.MethodPost, "/api/v1/users", map[string]string{"nickname": nickname})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.User](a.t, w)
}

func (a *apiClient) createAsset(sub string, owner models.User, price float64, discount int) models.Asset {
	a.t.Helper()
	w := a.json(sub, http.MethodPost, "/api/v1/assets/create/"+owner.UUID.String(), map[string]interface{}{
		"price":    price,
		"discount": discount,
		"lang":     []map[string]string{{"language": "en", "title": "Crate", "desc": "wooden crate"}},
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Asset](a.t, w)
}

func TestRouter_AssetLifecycle(t *testing.T) {
	api := newAPI(t)
	alice := api.register("auth0|alice", "alice")
	api.register("auth0|bob", "bob")

	asset := api.createAsset("auth0|alice", alice, 25, 0)
	assert.Equal(t, alice.UUID, asset.User.UUID)
	base := "/api/v1/assets/" + asset.UUID.String()

	pics := map[string][]byte{"a.jpg": testutil.JPEG("a"), "b.jpg": testutil.JPEG("b")}
	w := api.upload("auth0|alice", base+"/pictures", "pictures", pics, "a.jpg", "b.jpg")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	withPics := decode[models.Asset](t, w)
	require.Len(t, withPics.Pictures, 2)
	assert.Equal(t, testutil.URLs.URL(api.store.Uploads[0]), withPics.Pictures[0])

	w = api.upload("auth0|bob", base+"/pictures", "pictures", pics, "a.jpg")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode[map[string]interface{}](t, w)["error"])

	w = api.do("auth0|alice", http.MethodDelete, base+"/pictures/"+api.store.Uploads[0], nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{withPics.Pictures[1]}, []string(decode[models.Asset](t, w).Pictures))

	w = api.do("auth0|alice", http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Asset](t, w)
	assert.Len(t, got.Pictures, 1)
	require.Len(t, got.Translations, 1)
	assert.Equal(t, "Crate", got.Translations[0].Title)

	w = api.do("auth0|bob", http.MethodDelete, base, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do("auth0|alice", http.MethodDelete, base, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"affected":1}`, w.Body.String())

	w = api.do("auth0|alice", http.MethodGet, base, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[map[string]interface{}](t, w)["error"])
}

func TestRouter_FileAndSetPictures(t *testing.T) {
	api := newAPI(t)
	alice := api.register("auth0|alice", "alice")
	asset := api.createAsset("auth0|alice", alice, 5, 0)
	base := "/api/v1/assets/" + asset.UUID.String()

	w := api.upload("auth0|alice", base+"/file", "file", map[string][]byte{"pack.zip": []byte("PK\x03\x04data")}, "pack.zip")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "File uploaded", decode[map[string]interface{}](t, w)["message"])

	w = api.upload("auth0|alice", base+"/setPictures", "pictures", map[string][]byte{"x.jpg": testutil.JPEG("x")}, "x.jpg")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.upload("auth0|alice", base+"/setPictures", "pictures", map[string][]byte{"x.gif": []byte("GIF89a")}, "x.gif")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode[map[string]interface{}](t, w)["error"])

	w = api.upload("auth0|alice", base+"/setPictures", "other", map[string][]byte{"x.jpg": testutil.JPEG("x")}, "x.jpg")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_FindAssets(t *testing.T) {
	api := newAPI(t)
	alice := api.register("auth0|alice", "alice")
	for i := 0; i < 3; i++ {
		api.createAsset("auth0|alice", alice, float64(10*(i+1)), i)
	}

	w := api.do("auth0|alice", http.MethodGet, "/api/v1/assets/get?unknownField=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[[]models.Asset](t, w), 3, "unknown fields are ignored")

	w = api.do("auth0|alice", http.MethodGet, "/api/v1/assets/get?discount=true&page=1&take=1&orderBy=price&order=DESC", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[models.Page[models.Asset]](t, w)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 30.0, page.Data[0].Price)
	assert.Equal(t, models.PageMeta{Page: 1, PageSize: 1, ItemCount: 2, PageCount: 2, HasNextPage: true}, page.Meta)

	w = api.do("auth0|alice", http.MethodGet, "/api/v1/assets/get?minPrice=15&maxPrice=20&userUuid="+alice.UUID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[[]models.Asset](t, w), 1)

	for _, q := range []string{"uuid=nope", "take=500", "page=0", "orderBy=owner", "minPrice=abc", "page=9223372036854775807&take=2"} {
		w = api.do("auth0|alice", http.MethodGet, "/api/v1/assets/get?"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestRouter_Users(t *testing.T) {
	api := newAPI(t)
	alice := api.register("auth0|alice", "alice")

	w := api.json("auth0|alice", http.MethodPost, "/api/v1/users", map[string]string{"nickname": "again"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do("auth0|alice", http.MethodGet, "/api/v1/users/me", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, alice.UUID, decode[models.User](t, w).UUID)

	w = api.json("auth0|alice", http.MethodPut, "/api/v1/users/me", map[string]string{"desc": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", decode[models.User](t, w).Desc)

	w = api.do("auth0|bob", http.MethodGet, "/api/v1/users/"+alice.UUID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do("auth0|bob", http.MethodGet, "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do("auth0|bob", http.MethodGet, "/api/v1/users/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.upload("auth0|alice", "/api/v1/users/me/avatar", "avatar", map[string][]byte{"me.jpg": testutil.JPEG("me")}, "me.jpg")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[models.User](t, w).Avatar)

	w = api.do("auth0|alice", http.MethodDelete, "/api/v1/users/me", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do("auth0|alice", http.MethodGet, "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SubjectIsNotExposed(t *testing.T) {
	api := newAPI(t)
	alice := api.register("auth0|alice", "alice")
	asset := api.createAsset("auth0|alice", alice, 1, 0)

	for _, path := range []string{
		"/api/v1/assets/" + asset.UUID.String(),
		"/api/v1/assets/get",
		"/api/v1/users/" + alice.UUID.String(),
	} {
		w := api.do("auth0|bob", http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.NotContains(t, w.Body.String(), "auth0|alice", path)
	}
}

func TestRouter_RolesAndBlock(t *testing.T) {
	api := newAPI(t)
	alice := api.register("auth0|alice", "alice")
	api.register("auth0|root", "root")
	api.identity.Grant("auth0|root", services.AdminRole)

	w := api.do("auth0|root", http.MethodGet, "/api/v1/users/me/roles", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []models.Role{{ID: "rol_admin", Name: "admin"}}, decode[[]models.Role](t, w))

	w = api.do("auth0|alice", http.MethodGet, "/api/v1/users/me/roles", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	block := "/api/v1/users/" + alice.UUID.String() + "/block"
	w = api.do("auth0|alice", http.MethodPost, block, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, api.identity.Blocked)

	w = api.do("auth0|root", http.MethodPost, block, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"auth0|alice"}, api.identity.Blocked)

	w = api.do("auth0|root", http.MethodPost, "/api/v1/users/"+uuid.NewString()+"/block", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RequiresToken(t *testing.T) {
	api := newAPI(t)

	w := api.do("", http.MethodGet, "/api/v1/assets/get", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do("", http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
