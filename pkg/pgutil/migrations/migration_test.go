package migrations

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/mjkid221/cctp-bridge/pkg/config"
	"github.com/mjkid221/cctp-bridge/pkg/pgutil"
	"github.com/uptrace/bun"
)

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if sock == "" {
			continue
		}
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker daemon socket is not accessible; skipping testcontainer-backed schema tests")
}

// Minimal table shaped like a transfer record, used only to exercise the
// schema helpers.
type transferDao struct {
	bun.BaseModel `bun:"table:transfer_sample"`
	ID            int64  `bun:",pk,autoincrement"`
	UserAddress   string `bun:",notnull,type:varchar(64)"`
	Status        string `bun:",nullzero"`
}

func TestConnectDB_Success(t *testing.T) {
	requireDockerAccess(t)

	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()

	if err := db.Ping(); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
}

func TestConnectDB_InvalidHost(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "invalid-host-that-does-not-exist",
		Port:     5432,
		User:     "test",
		Password: "test",
		Database: "test",
		SSLMode:  "disable",
	}

	db, err := pgutil.ConnectDB(cfg)
	if err == nil {
		db.Close()
		t.Error("ConnectDB() should fail with invalid host")
	}
}

func TestCreateSchema(t *testing.T) {
	requireDockerAccess(t)

	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	err := CreateSchema(ctx, db, &transferDao{})
	if err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}

	pgutil.AssertTableExists(t, db, "transfer_sample")

	// Idempotent: second call must not fail
	err = CreateSchema(ctx, db, &transferDao{})
	if err != nil {
		t.Errorf("CreateSchema() second call failed: %v", err)
	}
}

func TestDropTables(t *testing.T) {
	requireDockerAccess(t)

	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	err := CreateSchema(ctx, db, &transferDao{})
	if err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	pgutil.AssertTableExists(t, db, "transfer_sample")

	err = DropTables(ctx, db, &transferDao{})
	if err != nil {
		t.Fatalf("DropTables() failed: %v", err)
	}

	pgutil.AssertTableNotExists(t, db, "transfer_sample")

	// Idempotent: second call must not fail
	err = DropTables(ctx, db, &transferDao{})
	if err != nil {
		t.Errorf("DropTables() second call failed: %v", err)
	}
}

func TestCreateIndex(t *testing.T) {
	requireDockerAccess(t)

	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	err := CreateSchema(ctx, db, &transferDao{})
	if err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}

	err = CreateIndex(ctx, db, "transfer_sample", "idx_sample_user", "user_address")
	if err != nil {
		t.Fatalf("CreateIndex() failed: %v", err)
	}

	pgutil.AssertIndexExists(t, db, "idx_sample_user")

	// Idempotent
	err = CreateIndex(ctx, db, "transfer_sample", "idx_sample_user", "user_address")
	if err != nil {
		t.Errorf("CreateIndex() second call failed: %v", err)
	}
}

func TestCreateIndexes(t *testing.T) {
	requireDockerAccess(t)

	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	err := CreateSchema(ctx, db, &transferDao{})
	if err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}

	err = CreateIndexes(ctx, db, "transfer_sample", "user_address", "status")
	if err != nil {
		t.Fatalf("CreateIndexes() failed: %v", err)
	}

	pgutil.AssertIndexExists(t, db, "idx_transfer_sample_user_address")
	pgutil.AssertIndexExists(t, db, "idx_transfer_sample_status")
}

func TestDropIndex(t *testing.T) {
	requireDockerAccess(t)

	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	err := CreateSchema(ctx, db, &transferDao{})
	if err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}

	err = CreateIndex(ctx, db, "transfer_sample", "idx_sample_user", "user_address")
	if err != nil {
		t.Fatalf("CreateIndex() failed: %v", err)
	}
	pgutil.AssertIndexExists(t, db, "idx_sample_user")

	err = DropIndex(ctx, db, "idx_sample_user")
	if err != nil {
		t.Fatalf("DropIndex() failed: %v", err)
	}

	var exists bool
	query := `SELECT EXISTS (SELECT FROM pg_indexes WHERE schemaname = 'public' AND indexname = ?)`
	err = db.NewRaw(query, "idx_sample_user").Scan(ctx, &exists)
	if err != nil {
		t.Fatalf("failed to check index: %v", err)
	}
	if exists {
		t.Error("index should be dropped but still exists")
	}

	// Idempotent
	err = DropIndex(ctx, db, "idx_sample_user")
	if err != nil {
		t.Errorf("DropIndex() second call failed: %v", err)
	}
}
