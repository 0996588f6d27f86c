package logger

import (
	"github.com/aleister1102/widgetloader/internal/config"
	"github.com/rs/zerolog"
)

// LoggerConfig is the resolved form of config.LogConfig
type LoggerConfig struct {
	Level         zerolog.Level
	Format        LogFormat
	EnableConsole bool
	EnableFile    bool
	FilePath      string
	MaxSizeMB     int
	MaxBackups    int
}

// LogFormat selects a writer strategy
type LogFormat int

const (
	FormatJSON LogFormat = iota
	FormatConsole
	FormatText
)

// logFormatNames are the values accepted in log_config.log_format
var logFormatNames = map[LogFormat]string{
	FormatJSON:    "json",
	FormatConsole: "console",
	FormatText:    "text",
}

func (lf LogFormat) String() string {
	if name, ok := logFormatNames[lf]; ok {
		return name
	}
	return config.DefaultLogFormat
}

// DefaultLoggerConfig is config.NewDefaultLogConfig resolved, writing to the console only
func DefaultLoggerConfig() LoggerConfig {
	cfg, _ := NewConfigConverter().ConvertConfig(config.NewDefaultLogConfig())
	return cfg
}
