package config

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"
)

func TestLoggingConfig_Prepare(t *testing.T) {
	t.Cleanup(func() { debug.SetCrashOutput(nil, debug.CrashOptions{}) })

	dir := t.TempDir()
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "normal", Destination: filepath.Join(dir, "test.log"), Mode: "overwrite"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("hidden message")
	log.Info("visible message")
	_ = log.Sync()

	data, err := os.ReadFile(conf.FileLogger.Destination)
	if err != nil {
		t.Fatalf("unable to read log: %v", err)
	}
	if !strings.Contains(string(data), "visible message") {
		t.Errorf("log does not contain info message:\n%s", data)
	}
	if strings.Contains(string(data), "hidden message") {
		t.Errorf("log contains debug message at normal level:\n%s", data)
	}
}

func TestLoggingConfig_PrepareWithReport(t *testing.T) {
	t.Cleanup(func() { debug.SetCrashOutput(nil, debug.CrashOptions{}) })

	dir := t.TempDir()
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none", Destination: filepath.Join(dir, "test.log")},
	}
	rpt := &Report{entries: make(map[string]entry)}
	log, err := conf.Prepare(rpt)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("debug message")
	_ = log.Sync()

	e, ok := rpt.entries["final.log"]
	if !ok {
		t.Fatal("log file was not stored in report")
	}
	data, err := os.ReadFile(e.actual)
	if err != nil {
		t.Fatalf("unable to read log: %v", err)
	}
	if !strings.Contains(string(data), "debug message") {
		t.Errorf("report log is not at debug level:\n%s", data)
	}
	if _, ok := rpt.entries["panic.log"]; !ok {
		t.Error("panic log was not stored in report")
	}
}

func TestLoggingConfig_PrepareConsoleOnly(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Info("nowhere")
}

func TestLoggingConfig_Cleanup(t *testing.T) {
	dir := t.TempDir()
	conf := LoggingConfig{FileLogger: LoggerConfig{Destination: filepath.Join(dir, "test.log")}}

	panicLog := filepath.Join(dir, "edconv-panic.log")
	if err := os.WriteFile(panicLog, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := conf.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(panicLog); !os.IsNotExist(err) {
		t.Errorf("empty panic log was not removed: %v", err)
	}

	if err := os.WriteFile(panicLog, []byte("goroutine 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := conf.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(panicLog); err != nil {
		t.Errorf("non-empty panic log was removed: %v", err)
	}
}
