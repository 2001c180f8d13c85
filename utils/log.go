package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is an instance of logrus.Logger
// Logger is to be used for all logging
var Logger = logrus.New()

// InitLogger initializes the logger with apropriate configuration options
func InitLogger(config *Config) {
	var (
		fileName = config.LogFileName
		maxSize  = config.LogMaxSize
		logLevel = config.LogLevel
	)

	if fileName == "" {
		fileName = "./auction-client.log"
	}

	if maxSize == 0 {
		maxSize = 50
	}

	if logLevel == "" {
		logLevel = "info"
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		panic(err)
	}

	Logger = &logrus.Logger{
		Formatter: &logrus.JSONFormatter{},
		Out:       logOutput(fileName, maxSize),
		Hooks:     make(logrus.LevelHooks),
		Level:     level,
	}

	Logger.Info("Logger started")
}

// GetNewFileLogger returns a logger writing to its own rotated file
func GetNewFileLogger(fileName string, maxSize int, logLevel string, json bool) *logrus.Logger {
	if fileName == "" {
		fileName = "./auction-client-aux.log"
	}

	if maxSize == 0 {
		maxSize = 50
	}

	if logLevel == "" {
		logLevel = "info"
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		panic(err)
	}

	logger := &logrus.Logger{
		Out:   logOutput(fileName, maxSize),
		Hooks: make(logrus.LevelHooks),
		Level: level,
	}

	if json {
		logger.Formatter = &logrus.JSONFormatter{}
	} else {
		logger.Formatter = &logrus.TextFormatter{}
	}

	return logger
}

func logOutput(fileName string, maxSize int) io.Writer {
	if fileName == "stdout" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename: fileName,
		MaxSize:  maxSize, // MB
	}
}
