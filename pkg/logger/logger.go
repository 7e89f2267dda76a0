package logger

import (
	"fmt"
	"log"
	"os"
	"strings"

	"k8s.io/klog/v2"
)

// LogLevel 日志级别
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var currentLevel LogLevel = INFO

// ParseLevel 解析日志级别字符串，未知值回退为 INFO
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Init 初始化日志系统
func Init(level string) {
	currentLevel = ParseLevel(level)

	klog.InitFlags(nil)
	klog.SetOutput(os.Stdout)

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	Infof("日志系统初始化完成，级别: %s", level)
}

// Level 返回当前日志级别
func Level() LogLevel {
	return currentLevel
}

// formatKV 以 key/value 形式拼接参数，msg 原样输出:
//
//	logger.Info("仓库添加成功", "id", id, "name", name)
func formatKV(prefix, msg string, kv ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			b.WriteString(" ")
			b.WriteString(fmt.Sprint(kv[i]))
			b.WriteString("=")
			b.WriteString(fmt.Sprint(kv[i+1]))
		} else {
			b.WriteString(" ")
			b.WriteString(fmt.Sprint(kv[i]))
		}
	}
	return b.String()
}

func debug(message string) {
	if currentLevel <= DEBUG {
		_ = log.Output(3, message)
		klog.V(4).Info(message)
	}
}

func info(message string) {
	if currentLevel <= INFO {
		_ = log.Output(3, message)
	}
}

func warn(message string) {
	if currentLevel <= WARN {
		_ = log.Output(3, message)
		klog.Warning(message)
	}
}

func errorf(message string) {
	if currentLevel <= ERROR {
		_ = log.Output(3, message)
		klog.Error(message)
	}
}

func fatal(message string) {
	_ = log.Output(3, message)
	klog.Fatal(message)
}

// Debug 调试日志，附带 key/value 参数
func Debug(msg string, kv ...interface{}) {
	debug(formatKV("[DEBUG] ", msg, kv...))
}

// Debugf 格式化调试日志
func Debugf(format string, args ...interface{}) {
	debug("[DEBUG] " + fmt.Sprintf(format, args...))
}

// Info 信息日志，附带 key/value 参数
func Info(msg string, kv ...interface{}) {
	info(formatKV("[INFO] ", msg, kv...))
}

// Infof 格式化信息日志
func Infof(format string, args ...interface{}) {
	info("[INFO] " + fmt.Sprintf(format, args...))
}

// Warn 警告日志，附带 key/value 参数
func Warn(msg string, kv ...interface{}) {
	warn(formatKV("[WARN] ", msg, kv...))
}

// Warnf 格式化警告日志
func Warnf(format string, args ...interface{}) {
	warn("[WARN] " + fmt.Sprintf(format, args...))
}

// Error 错误日志，附带 key/value 参数
func Error(msg string, kv ...interface{}) {
	errorf(formatKV("[ERROR] ", msg, kv...))
}

// Errorf 格式化错误日志
func Errorf(format string, args ...interface{}) {
	errorf("[ERROR] " + fmt.Sprintf(format, args...))
}

// Fatal 致命错误日志，附带 key/value 参数
func Fatal(msg string, kv ...interface{}) {
	fatal(formatKV("[FATAL] ", msg, kv...))
}

// Fatalf 格式化致命错误日志
func Fatalf(format string, args ...interface{}) {
	fatal("[FATAL] " + fmt.Sprintf(format, args...))
}
