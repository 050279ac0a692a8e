package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a GORM *DB backed by a SQLite file. Foreign keys are
// enforced, and writers wait up to 5s for the file lock instead of
// failing immediately under write contention.
func Open(path string) (*gorm.DB, error) {
	return open("file:" + path + "?_fk=1&_busy_timeout=5000")
}

// OpenMemory creates a shared in-memory database for the memory DB
// mode; every connection in the pool sees the same data.
func OpenMemory() (*gorm.DB, error) {
	return open("file::memory:?cache=shared")
}

func open(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}
