package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hostelreview/hostelreview/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// migrations in apply order.
var migrations = []string{
	"000001_catalog",
	"000002_users_reviews",
	"000003_hostel_images",
}

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops every table and reapplies all migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i := len(migrations) - 1; i >= 0; i-- {
		if err := applyMigration(ctx, pool, migrations[i]+".down.sql"); err != nil {
			return err
		}
	}
	for _, name := range migrations {
		if err := applyMigration(ctx, pool, name+".up.sql"); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, file string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	sql, err := os.ReadFile(filepath.Join(root, "migrations", file))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", file, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestHostel creates a hostel with sensible defaults. The id is assigned
// by the database on insert.
func NewTestHostel(t testing.TB, name string) *model.Hostel {
	t.Helper()
	return &model.Hostel{
		Name:               name,
		HostelType:         "boys",
		BedType:            "double",
		ChotaDhobiFacility: true,
		Description:        "Test hostel " + name,
	}
}

// NewTestReview creates a review for a hostel floor with sensible defaults.
func NewTestReview(t testing.TB, hostelID, floorID int64, roomNumber string) *model.Review {
	t.Helper()
	return &model.Review{
		ID:               UniqueID("review"),
		HostelID:         hostelID,
		FloorID:          floorID,
		RoomNumber:       roomNumber,
		JioSpeed:         42.5,
		AirtelSpeed:      30,
		VITWifiSpeed:     12.25,
		CleanlinessScore: 4,
		Remarks:          "quiet floor",
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestUser creates a user with a unique provider uid.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	uid := UniqueID("google")
	return &model.User{
		ID:          UniqueID("user"),
		ProviderUID: uid,
		Name:        "Test User",
		Email:       uid + "@example.com",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
