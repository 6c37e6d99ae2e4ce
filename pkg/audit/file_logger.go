package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/platinummonkey/storefront/pkg/observability"
)

const (
	activeFileName  = "audit.log"
	rotatedPattern  = "audit-*.log"
	rotatedTimeForm = "20060102-150405.000000000"
)

// FileLogger appends audit events as JSON lines to <BasePath>/audit.log
type FileLogger struct {
	basePath string
	file     *os.File
	mu       sync.Mutex
	encoder  *json.Encoder
	rotate   bool
	maxSize  int64 // Max file size in bytes before rotation
	maxFiles int   // Max number of rotated files to keep
	log      *observability.Logger
}

// FileLoggerConfig configures the file logger
type FileLoggerConfig struct {
	BasePath string `yaml:"base_path"`
	Rotate   bool   `yaml:"rotate"`
	MaxSize  int64  `yaml:"max_size"`  // default: 100MB
	MaxFiles int    `yaml:"max_files"` // default: 10
}

// DefaultFileLoggerConfig returns default configuration
func DefaultFileLoggerConfig() FileLoggerConfig {
	return FileLoggerConfig{
		BasePath: "/var/log/storefront/audit",
		Rotate:   true,
		MaxSize:  100 * 1024 * 1024,
		MaxFiles: 10,
	}
}

// NewFileLogger creates a new file-based audit logger
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	defaults := DefaultFileLoggerConfig()
	logger := &FileLogger{
		basePath: config.BasePath,
		rotate:   config.Rotate,
		maxSize:  config.MaxSize,
		maxFiles: config.MaxFiles,
		log:      observability.NewLogger(observability.WarnLevel, os.Stderr),
	}
	if logger.maxSize <= 0 {
		logger.maxSize = defaults.MaxSize
	}
	if logger.maxFiles <= 0 {
		logger.maxFiles = defaults.MaxFiles
	}

	if err := logger.openLogFile(); err != nil {
		return nil, err
	}
	return logger, nil
}

// WithLogger routes housekeeping failures (pruning rotated files) to logger
func (l *FileLogger) WithLogger(logger *observability.Logger) *FileLogger {
	if logger != nil {
		l.log = logger
	}
	return l
}

func (l *FileLogger) activePath() string {
	return filepath.Join(l.basePath, activeFileName)
}

// openLogFile opens the active file in append mode, rotating it first when full
func (l *FileLogger) openLogFile() error {
	if l.rotate {
		if info, err := os.Stat(l.activePath()); err == nil && info.Size() >= l.maxSize {
			if err := l.rotateFile(); err != nil {
				return fmt.Errorf("failed to rotate log file: %w", err)
			}
		}
	}

	file, err := os.OpenFile(l.activePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}

	if l.file != nil {
		l.file.Close()
	}
	l.file = file
	l.encoder = json.NewEncoder(file)
	return nil
}

// rotateFile moves the active file aside. Pruning old rotations is best
// effort: a failure is logged and never stops the trail.
func (l *FileLogger) rotateFile() error {
	rotated := filepath.Join(l.basePath, "audit-"+time.Now().UTC().Format(rotatedTimeForm)+".log")
	if err := os.Rename(l.activePath(), rotated); err != nil {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	if err := l.cleanupOldFiles(); err != nil {
		l.log.WithError(err).Warn("Failed to prune rotated audit logs")
	}
	return nil
}

// cleanupOldFiles removes the oldest rotated files beyond maxFiles. Rotated
// names embed a sortable UTC timestamp.
func (l *FileLogger) cleanupOldFiles() error {
	files, err := filepath.Glob(filepath.Join(l.basePath, rotatedPattern))
	if err != nil {
		return err
	}
	if len(files) <= l.maxFiles {
		return nil
	}

	sort.Strings(files)
	var errs []error
	for _, file := range files[:len(files)-l.maxFiles] {
		if err := os.Remove(file); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log logs an audit event to the file
func (l *FileLogger) Log(ctx context.Context, event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return errors.New("audit log file is closed")
	}

	if l.rotate {
		if info, err := l.file.Stat(); err == nil && info.Size() >= l.maxSize {
			if err := l.openLogFile(); err != nil {
				return err
			}
		}
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// Close closes the file logger
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// ReadLogs reads up to count events from the active file; count <= 0 reads all
func (l *FileLogger) ReadLogs(count int) ([]*Event, error) {
	file, err := os.Open(l.activePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	var events []*Event
	decoder := json.NewDecoder(file)
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode audit log entry: %w", err)
		}
		events = append(events, &event)

		if count > 0 && len(events) >= count {
			break
		}
	}
	return events, nil
}
