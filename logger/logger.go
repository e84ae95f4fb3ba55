// Package logger 构建进程级 zap 日志器。
//
// debug 模式输出彩色控制台日志，release 模式输出 JSON；
// 配置了 log.file 时额外写入文件，由 lumberjack 负责按大小轮转。
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"chatrelay/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New 根据运行模式和日志配置创建日志器
func New(mode string, cfg config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	var encoderCfg zapcore.EncoderConfig
	var consoleEncoder zapcore.Encoder
	if mode == "release" {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		consoleEncoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level),
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		fileEncoderCfg := zap.NewProductionEncoderConfig()
		fileEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderCfg), writer, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// Must 同 New，失败时 panic，用于进程启动阶段
func Must(mode string, cfg config.LogConfig) *zap.Logger {
	l, err := New(mode, cfg)
	if err != nil {
		panic(err)
	}
	return l
}
