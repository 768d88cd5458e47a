// Package testutil provides an in-memory database and object store for tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/assetstore/backend/internal/apperror"
	"github.com/assetstore/backend/internal/config"
	"github.com/assetstore/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// URLs is the object URL layout used by MemoryStore and the services under test.
var URLs = config.ObjectURLs{Scheme: "https", Bucket: "test-bucket", Host: "storage.test"}

// NewDB opens a migrated sqlite database private to the calling test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// keep the shared in-memory database alive for the whole test
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.Migrate(db))
	return db
}

// ErrUploadFailed is returned by MemoryStore when told to fail.
var ErrUploadFailed = errors.New("upload failed")

// MemoryStore is an in-memory ObjectStore. FailOnUpload makes the n-th
// upload (1-based, counted over the store's lifetime) fail.
type MemoryStore struct {
	mu           sync.Mutex
	Objects      map[string][]byte
	Uploads      []string
	Deleted      []string
	FailOnUpload int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: map[string][]byte{}}
}

func (m *MemoryStore) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOnUpload > 0 && len(m.Uploads)+1 == m.FailOnUpload {
		m.Uploads = append(m.Uploads, key)
		return "", ErrUploadFailed
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.Uploads = append(m.Uploads, key)
	m.Objects[key] = data
	return URLs.URL(key), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

// Len reports how many objects are currently stored.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}

// JPEG returns a tiny blob that sniffs as image/jpeg.
func JPEG(tag string) []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, []byte(tag)...)
}

// MemoryIdentity is an in-memory identity provider. Subjects not present in
// RoleMap have no roles; Unknown subjects make every call fail with NotFound.
type MemoryIdentity struct {
	mu      sync.Mutex
	RoleMap map[string][]models.Role
	Blocked []string
	Unknown map[string]bool
}

func NewMemoryIdentity() *MemoryIdentity {
	return &MemoryIdentity{RoleMap: map[string][]models.Role{}, Unknown: map[string]bool{}}
}

// Grant assigns a role by name to sub.
func (m *MemoryIdentity) Grant(sub, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RoleMap[sub] = append(m.RoleMap[sub], models.Role{ID: "rol_" + role, Name: role})
}

func (m *MemoryIdentity) Block(_ context.Context, sub string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unknown[sub] {
		return apperror.NotFound("identity", sub)
	}
	m.Blocked = append(m.Blocked, sub)
	return nil
}

func (m *MemoryIdentity) Roles(_ context.Context, sub string) ([]models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unknown[sub] {
		return nil, apperror.NotFound("identity", sub)
	}
	return append([]models.Role{}, m.RoleMap[sub]...), nil
}
