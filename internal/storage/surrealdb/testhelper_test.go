package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/paperledger/internal/common"
	tcommon "github.com/bobmcallan/paperledger/tests/common"
	surreal "github.com/surrealdb/surrealdb.go"
)

// testDatabase returns a unique database name per test for isolation.
// Subtest names contain "/" which SurrealDB rejects.
func testDatabase(t *testing.T) string {
	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
}

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	sc := tcommon.StartSurrealDB(t)

	cfg := common.NewDefaultConfig()
	cfg.Environment = "test"
	cfg.Storage.Backend = "surrealdb"
	cfg.Storage.SnapshotBackend = "surrealdb"
	cfg.Storage.SurrealDB = common.SurrealDBConfig{
		Address:   sc.Address(),
		Username:  "root",
		Password:  "root",
		Namespace: "paperledger_test",
		Database:  testDatabase(t),
	}
	return cfg
}

// testDB starts the shared SurrealDB container and returns a connected,
// schema-initialised *surreal.DB.
func testDB(t *testing.T) *surreal.DB {
	t.Helper()
	cfg := testConfig(t)

	db, err := Connect(context.Background(), testLogger(), &cfg.Storage.SurrealDB)
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}
	t.Cleanup(func() {
		db.Close(context.Background())
	})
	return db
}

// testLogger returns a silent logger for tests.
func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
