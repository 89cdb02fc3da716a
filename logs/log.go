package logs

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// 日志级别（数值越大，级别越高）
const (
	LevelTrace   = iota // 0（最低，最详细）
	LevelDebug          // 1
	LevelVerbose        // 2
	LevelInfo           // 3
	LevelWarning        // 4
	LevelError          // 5（最高，最严重）
)

var logLevel int32 = LevelInfo

// NodeTag 每行日志的前缀标记（例如节点名），为空时不输出
var NodeTag = ""

// Logger 可注入的日志接口，db.Manager 等模块持有它而不是直接调用包级函数
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type levelLoggers struct {
	traceLogger   *log.Logger
	debugLogger   *log.Logger
	verboseLogger *log.Logger
	infoLogger    *log.Logger
	warnLogger    *log.Logger
	errorLogger   *log.Logger
}

var logger *levelLoggers

func init() {
	SetOutput(os.Stdout, os.Stderr)
}

// SetOutput 重新绑定输出目标；错误级别单独走 errOut
func SetOutput(out, errOut io.Writer) {
	flags := log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
	logger = &levelLoggers{
		traceLogger:   log.New(out, "[TRACE]   ", flags),
		debugLogger:   log.New(out, "[DEBUG]   ", flags),
		verboseLogger: log.New(out, "[VERBOSE] ", flags),
		infoLogger:    log.New(out, "[INFO]    ", flags),
		warnLogger:    log.New(out, "[WARN]    ", flags),
		errorLogger:   log.New(errOut, "[ERROR]   ", flags),
	}
}

// SetLevel 设置全局日志级别
func SetLevel(level int) {
	atomic.StoreInt32(&logLevel, int32(level))
}

// GetLevel 当前全局日志级别
func GetLevel() int {
	return int(atomic.LoadInt32(&logLevel))
}

// ParseLevel 把配置里的字符串转换为级别常量
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "verbose":
		return LevelVerbose, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func enabled(level int) bool {
	return GetLevel() <= level
}

func prefix(format string) string {
	if NodeTag == "" {
		return format
	}
	return NodeTag + " " + format
}

// calldepth 3: Printf 调用方 -> 包级函数 -> output
func output(l *log.Logger, format string, v ...interface{}) {
	_ = l.Output(3, fmt.Sprintf(prefix(format), v...))
}

func Trace(format string, v ...interface{}) {
	if enabled(LevelTrace) {
		output(logger.traceLogger, format, v...)
	}
}

func Debug(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		output(logger.debugLogger, format, v...)
	}
}

func Verbose(format string, v ...interface{}) {
	if enabled(LevelVerbose) {
		output(logger.verboseLogger, format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		output(logger.infoLogger, format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if enabled(LevelWarning) {
		output(logger.warnLogger, format, v...)
	}
}

func Error(format string, v ...interface{}) {
	if enabled(LevelError) {
		output(logger.errorLogger, format, v...)
	}
}

// Default 返回转发到包级函数的 Logger 实现
func Default() Logger {
	return stdLogger{}
}

type stdLogger struct{}

func (stdLogger) Debug(format string, v ...interface{}) { Debug(format, v...) }
func (stdLogger) Info(format string, v ...interface{})  { Info(format, v...) }
func (stdLogger) Warn(format string, v ...interface{})  { Warn(format, v...) }
func (stdLogger) Error(format string, v ...interface{}) { Error(format, v...) }
