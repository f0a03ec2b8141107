package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/yaroslav/recipebox/internal/storage"
	"github.com/yaroslav/recipebox/models"
	"github.com/yaroslav/recipebox/pkg/password"
	"github.com/yaroslav/recipebox/pkg/token"
)

const testSecret = "secret-should-be-long-enough-123456"

func newTestLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return zap.New(core), logs
}

func newUserService(t testing.TB, db *storage.DB) (*UserService, *observer.ObservedLogs) {
	t.Helper()
	logger, logs := newTestLogger()
	svc, err := NewUserService(db, logger, password.NewHasher(bcrypt.MinCost), token.NewIssuer(testSecret, time.Minute))
	if err != nil {
		t.Fatalf("NewUserService failed: %v", err)
	}
	return svc, logs
}

func seedUser(t testing.TB, svc *UserService, email, name string) *models.User {
	t.Helper()
	user, err := svc.Create(context.Background(), &models.UserCreateRequest{
		Email:    email,
		Password: "testpass123",
		Name:     name,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}

// fakeImages records saved and removed paths without touching disk.
type fakeImages struct {
	mu      sync.Mutex
	next    int
	saveErr error
	saved   []string
	removed []string
}

func (f *fakeImages) SaveRecipeImage(r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.next++
	rel := fmt.Sprintf("uploads/recipe/img-%d.png", f.next)
	f.saved = append(f.saved, rel)
	return rel, nil
}

func (f *fakeImages) RemoveQuietly(rel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, rel)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }
