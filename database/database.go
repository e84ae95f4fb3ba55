package database

import (
	"fmt"
	"time"

	"chatrelay/config"
	"chatrelay/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormWriter 把 gorm 的日志转发给 zap
type gormWriter struct {
	log *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Infof(format, args...)
}

func newGormLogger(mode string, log *zap.Logger) logger.Interface {
	level := logger.Warn
	if mode == "debug" {
		level = logger.Info
	}
	return logger.New(gormWriter{log: log.Named("gorm").Sugar()}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Open 建立数据库连接并配置连接池
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dsn, err := cfg.Database.MySQLDSN()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         newGormLogger(cfg.Server.Mode, log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	return db, nil
}

// Migrate 自动迁移表结构，同时创建 email 唯一索引以及 user_id、timestamp 索引
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.ChatRecord{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
