// Package database opens the relational store, migrates the schema and
// seeds the default administrator.
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/mapavioleta/mapavioleta/config"
	"github.com/mapavioleta/mapavioleta/database/model"
	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/mapavioleta/mapavioleta/util/crypto"
	"github.com/mapavioleta/mapavioleta/util/random"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	db      *gorm.DB
	dialect config.DatabaseType
)

const defaultAdminHandle = "admin"

func initModels() error {
	models := []any{
		&model.User{},
		&model.MapEntry{},
		&model.Comment{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			logger.Warningf("Error auto migrating model %T: %v", m, err)
			return err
		}
	}
	return nil
}

// initAdmin seeds an administrator when no user exists yet. Without a
// configured password a random one is generated and logged once.
func initAdmin() error {
	empty, err := isTableEmpty("users")
	if err != nil {
		logger.Warning("Error checking if users table is empty:", err)
		return err
	}
	if !empty {
		return nil
	}

	password := config.GetAdminPassword()
	generated := password == ""
	if generated {
		password = random.Seq(12)
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Handle:       defaultAdminHandle,
		Email:        config.GetAdminEmail(),
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	if generated {
		logger.Warningf("created administrator %s with generated password %s", admin.Email, password)
	} else {
		logger.Infof("created administrator %s", admin.Email)
	}
	return nil
}

// backfillSearchText fills SearchText for entries stored before the column
// existed.
func backfillSearchText() error {
	var entries []model.MapEntry
	if err := db.Where("search_text = ''").Find(&entries).Error; err != nil {
		return err
	}
	for i := range entries {
		entries[i].RefreshSearchText()
		if err := db.Model(&entries[i]).Update("search_text", entries[i].SearchText).Error; err != nil {
			return err
		}
	}
	if len(entries) > 0 {
		logger.Infof("indexed %d map entries for search", len(entries))
	}
	return nil
}

func isTableEmpty(tableName string) (bool, error) {
	var count int64
	err := db.Table(tableName).Count(&count).Error
	return count == 0, err
}

// InitDB opens the configured database, migrates the schema and seeds the
// administrator account.
func InitDB(c *config.DatabaseConfig) error {
	if err := c.ValidateConfig(); err != nil {
		return err
	}
	if err := c.EnsureDirectoryExists(); err != nil {
		return err
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	gc := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch c.Type {
	case config.DatabaseTypePostgreSQL:
		dialector = postgres.Open(c.GetDSN())
	default:
		dialector = sqlite.Open(c.GetDSN())
	}

	var err error
	db, err = gorm.Open(dialector, gc)
	if err != nil {
		return err
	}
	dialect = c.Type

	if c.IsSQLite() {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		for _, pragma := range []string{
			"PRAGMA cache_size = -64000;",
			"PRAGMA temp_store = MEMORY;",
			"PRAGMA foreign_keys = ON;",
		} {
			if _, err := sqlDB.Exec(pragma); err != nil {
				return err
			}
		}
	}

	if err := initModels(); err != nil {
		return err
	}
	if err := backfillSearchText(); err != nil {
		return err
	}
	return initAdmin()
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	if dialect == config.DatabaseTypeSQLite {
		if err := Checkpoint(); err != nil {
			logger.Warning("error executing checkpoint:", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	db = nil
	return err
}

func GetDB() *gorm.DB {
	return db
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// Contains returns a case-sensitive substring predicate on column, taking
// the needle as its single bind parameter. LIKE is avoided because SQLite
// folds ASCII case and the needle would need wildcard escaping.
func Contains(column string) string {
	if dialect == config.DatabaseTypePostgreSQL {
		return fmt.Sprintf("strpos(%s, ?) > 0", column)
	}
	return fmt.Sprintf("instr(%s, ?) > 0", column)
}

func Checkpoint() error {
	return db.Exec("PRAGMA wal_checkpoint;").Error
}
