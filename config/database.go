package config

import (
	"strings"
	"time"

	"github.com/ABFerraz00/mandacafe/models"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDB connects to PostgreSQL or SQLite depending on the URL scheme and
// installs the given plugins.
func OpenDB(databaseURL string, plugins ...gorm.Plugin) (*gorm.DB, error) {
	dialector, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	for _, p := range plugins {
		if err := db.Use(p); err != nil {
			return nil, errors.Wrapf(err, "failed to install plugin %s", p.Name())
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get database handle")
	}
	if isSQLite(databaseURL) {
		// one writer; also keeps shared in-memory databases alive
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), nil
	case isSQLite(databaseURL):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if !strings.Contains(path, "_foreign_keys") {
			sep := "?"
			if strings.Contains(path, "?") {
				sep = "&"
			}
			path += sep + "_foreign_keys=on"
		}
		return sqlite.Open(path), nil
	}
	return nil, errors.Errorf("unsupported database URL: %s", databaseURL)
}

// Driver names the dialect a database URL selects.
func Driver(databaseURL string) string {
	if isSQLite(databaseURL) {
		return "sqlite"
	}
	return "postgres"
}

func isSQLite(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "sqlite://")
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Category{}, &models.Dish{}); err != nil {
		return errors.Wrap(err, "AutoMigrate failed")
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
