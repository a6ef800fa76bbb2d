package database

import (
	"FollowTracker/internal/api/config"
	"FollowTracker/internal/model"
	"FollowTracker/internal/pkg/logger"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// sqlite 写事务直接取 RESERVED 锁，并发事务排队等待而不是立即返回 SQLITE_BUSY
const (
	sqliteBusyTimeout = "_pragma=busy_timeout(5000)"
	sqliteTxLock      = "_txlock=immediate"
)

// NewGormDB 初始化并返回 *gorm.DB 实例，处理连接池配置与建表
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case DriverSQLite, "":
		dialector = sqlite.Open(SQLiteDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      logger.NewGormLogger(),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Database connection established successfully.", "driver", cfg.Driver)
	return db, nil
}

// SQLiteDSN 补齐 busy_timeout 与 _txlock 参数，已显式配置的保持不变
func SQLiteDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, sqliteBusyTimeout)
	}
	if !strings.Contains(dsn, "_txlock") {
		params = append(params, sqliteTxLock)
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Migrate 建表及唯一索引
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.TrackedAccount{},
		&model.FollowingEdge{},
		&model.PendingNotification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// OpenMemory 打开一个进程内 sqlite 库，供测试及本地调试使用
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger().LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err = Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
