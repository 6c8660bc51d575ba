package voucher

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbutil "github.com/openstorelab/storefront/internal/db"
	"github.com/openstorelab/storefront/internal/idempotency"
)

var testDBSeq atomic.Int64

// openTestDB opens a private in-memory database with the full schema. The
// pool is pinned to one connection so concurrent test writers serialize
// instead of tripping SQLITE_BUSY.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:voucher_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("unwrap sql.DB: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

// newTestService builds a Service over a fresh test database and returns
// the connection for seeding and assertions.
func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	return NewService(conn, idempotency.NewMemoryStore()), conn
}
