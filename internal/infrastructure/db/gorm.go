package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cmcs-backend/internal/config"
	"cmcs-backend/internal/domain/access"
	"cmcs-backend/internal/domain/claim"
	"cmcs-backend/internal/domain/user"
	"cmcs-backend/pkg/id"
)

// Dialector picks the gorm driver for cfg.Driver.
func Dialector(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.MySQLDSN()), nil
	case "postgres":
		return postgres.Open(cfg.PostgresDSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}

func Open(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	dial, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	level := logger.Warn
	if cfg.Debug {
		level = logger.Info
	}
	gdb, err := OpenGormWithDialector(dial, level)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// one writer at a time; sqlite serialises anyway
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if log != nil {
		log.Info("gorm: connected", zap.String("driver", cfg.Driver), zap.String("host", cfg.Host), zap.String("name", cfg.Name))
	}
	return gdb, nil
}

// OpenGormWithDialector configures the pool and pings before returning.
func OpenGormWithDialector(dial gorm.Dialector, level ...logger.LogLevel) (*gorm.DB, error) {
	lvl := logger.Warn
	if len(level) > 0 {
		lvl = level[0]
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(lvl),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&user.User{}, &claim.Claim{})
}

// DefaultUsers is one account per role, inserted by SeedUsers.
func DefaultUsers() []user.User {
	return []user.User{
		{Username: "hr", Role: access.RoleHR, FirstName: "Human", LastName: "Resources", Email: "hr@cmcs.local"},
		{Username: "lecturer", Role: access.RoleLecturer, FirstName: "Default", LastName: "Lecturer", Email: "lecturer@cmcs.local", HourlyRate: 350},
		{Username: "coordinator", Role: access.RoleCoordinator, FirstName: "Programme", LastName: "Coordinator", Email: "coordinator@cmcs.local"},
		{Username: "manager", Role: access.RoleManager, FirstName: "Academic", LastName: "Manager", Email: "manager@cmcs.local"},
	}
}

// SeedUsers inserts DefaultUsers through users when it holds no accounts and
// reports how many rows it wrote.
func SeedUsers(ctx context.Context, users user.Repository, log *zap.Logger) (int, error) {
	n, err := users.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	seed := DefaultUsers()
	for i := range seed {
		seed[i].UserID = id.NewID32()
		if err := users.Create(ctx, &seed[i]); err != nil {
			return i, fmt.Errorf("seed %s: %w", seed[i].Username, err)
		}
		if log != nil {
			log.Info("seeded user", zap.String("username", seed[i].Username), zap.String("user_id", seed[i].UserID), zap.String("role", string(seed[i].Role)))
		}
	}
	return len(seed), nil
}
