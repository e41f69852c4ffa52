package testsupport

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/repository"
)

// MustOpenDB opens a migrated SQLite database in the test's temp dir and
// registers cleanup. Foreign keys are enforced.
func MustOpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dreadscale.db")
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// MustOpenRepositories opens a test database and wraps it in repositories.
func MustOpenRepositories(t testing.TB) *repository.Repositories {
	t.Helper()
	return repository.NewRepositories(MustOpenDB(t))
}

// MustCreateUser inserts a user with the given email and password "secret123".
func MustCreateUser(t testing.TB, repos *repository.Repositories, email, firstName string) *model.User {
	t.Helper()

	user := &model.User{Email: email, FirstName: firstName}
	if err := repos.User.Create(user, "secret123"); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// MustEnsureMovie inserts a minimal movie row.
func MustEnsureMovie(t testing.TB, repos *repository.Repositories, id int, title string) {
	t.Helper()

	if err := repos.Movie.EnsureExists(&model.Movie{ID: id, Title: title}); err != nil {
		t.Fatalf("ensure movie %d: %v", id, err)
	}
}
