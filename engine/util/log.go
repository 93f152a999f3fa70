package util

import (
	"os"

	"github.com/sirupsen/logrus"
)

var GLOBAL_LOG_LEVEL = LogLevelInfo
var GLOBAL_LOG_CATEGORIES = LogOctree | LogCollider | LogVoxel | LogIO | LogSystem

type LogLevel int

const (
	LogLevelError LogLevel = 1 << iota
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

type LogCategory int

const (
	LogOctree LogCategory = 1 << iota
	LogCollider
	LogVoxel
	LogIO
	LogSystem
)

func (c LogCategory) String() string {
	switch c {
	case LogOctree:
		return "octree"
	case LogCollider:
		return "collider"
	case LogVoxel:
		return "voxel"
	case LogIO:
		return "io"
	case LogSystem:
		return "system"
	}
	return "unknown"
}

func init() {
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.DebugLevel)
}

// SetLogLevel sets the most verbose level that is still printed.
func SetLogLevel(lvl LogLevel) {
	GLOBAL_LOG_LEVEL = lvl
}

func SetLogCategories(categories LogCategory) {
	GLOBAL_LOG_CATEGORIES = categories
}

// UseTextFormatter switches the log output to logrus' text formatter with
// or without colors.
func UseTextFormatter(colors bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:      colors,
		DisableColors:    !colors,
		FullTimestamp:    true,
		DisableSorting:   false,
		QuoteEmptyFields: true,
	})
}

// IsLogging reports whether a message of this category and level would be
// printed. Callers check it before formatting expensive messages.
func IsLogging(cat LogCategory, lvl LogLevel) bool {
	return lvl <= GLOBAL_LOG_LEVEL && GLOBAL_LOG_CATEGORIES&cat != 0
}

func log(cat LogCategory, lvl LogLevel, txt string) {
	if !IsLogging(cat, lvl) {
		return
	}
	entry := logrus.WithField("category", cat.String())
	switch lvl {
	case LogLevelError:
		entry.Error(txt)
	case LogLevelWarning:
		entry.Warn(txt)
	case LogLevelInfo:
		entry.Info(txt)
	default:
		entry.Debug(txt)
	}
}

func LogOctreeDebug(txt string) {
	log(LogOctree, LogLevelDebug, txt)
}

func LogOctreeInfo(txt string) {
	log(LogOctree, LogLevelInfo, txt)
}

func LogColliderDebug(txt string) {
	log(LogCollider, LogLevelDebug, txt)
}

func LogColliderError(txt string) {
	log(LogCollider, LogLevelError, txt)
}

func LogVoxelInfo(txt string) {
	log(LogVoxel, LogLevelInfo, txt)
}

func LogVoxelDebug(txt string) {
	log(LogVoxel, LogLevelDebug, txt)
}

func LogIOError(txt string) {
	log(LogIO, LogLevelError, txt)
}

func LogSystemInfo(txt string) {
	log(LogSystem, LogLevelInfo, txt)
}

func LogSystemWarning(txt string) {
	log(LogSystem, LogLevelWarning, txt)
}

func LogSystemError(txt string) {
	log(LogSystem, LogLevelError, txt)
}
