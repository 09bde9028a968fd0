// Package logging configures the process wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ParseLevel maps the accepted level names to logrus levels.
// CRITICAL and FATAL both mean fatal, WARN and WARNING mean warn.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL", "FATAL":
		return log.FatalLevel, nil
	case "ERROR":
		return log.ErrorLevel, nil
	case "WARNING", "WARN":
		return log.WarnLevel, nil
	case "", "INFO":
		return log.InfoLevel, nil
	case "DEBUG":
		return log.DebugLevel, nil
	}
	return log.InfoLevel, fmt.Errorf("invalid log level %q, must be one of CRITICAL, ERROR, WARNING, INFO, DEBUG", s)
}

// Setup sets level and format of the standard logger. Output is logfmt with
// full millisecond timestamps and no colors.
func Setup(level string, out io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		DisableColors:   true,
	})
	if out != nil {
		log.SetOutput(out)
	}
	return nil
}

// MaskKey hides all but the first five characters of an API key, unless
// debug logging is enabled.
func MaskKey(key string) string {
	if log.IsLevelEnabled(log.DebugLevel) || len(key) <= 5 {
		return key
	}
	return key[:5] + strings.Repeat("*", len(key)-5)
}
