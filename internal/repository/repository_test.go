package repository

import (
	"fmt"
	"sync/atomic"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"admissions-advisor/internal/model"
)

var testDBSeq atomic.Int64

// openTestDB returns a fresh named in-memory database per call so tests do
// not observe each other's rows.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.Staff{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}
