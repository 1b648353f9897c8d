package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileRotator is an io.Writer over a log file that rotates when the file
// would exceed MaxSize or when the day changes.
type FileRotator struct {
	path       string
	maxBytes   int64
	maxBackups int
	compress   bool

	mu       sync.Mutex
	file     *os.File
	size     int64
	openedAt time.Time
	now      func() time.Time
	pending  sync.WaitGroup
}

// NewFileRotator opens cfg.FilePath for appending.
func NewFileRotator(cfg *Config) (*FileRotator, error) {
	r := &FileRotator{
		path:       cfg.FilePath,
		maxBytes:   cfg.MaxSize * 1024 * 1024,
		maxBackups: cfg.MaxBackups,
		compress:   cfg.Compress,
		now:        time.Now,
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRotator) open() error {
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	r.file = file
	r.size = info.Size()
	r.openedAt = r.now()
	return nil
}

// Write implements io.Writer.
func (r *FileRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}

	if r.shouldRotate(int64(len(p))) {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *FileRotator) shouldRotate(writeSize int64) bool {
	if r.size == 0 {
		return false
	}
	if r.maxBytes > 0 && r.size+writeSize > r.maxBytes {
		return true
	}
	return r.now().YearDay() != r.openedAt.YearDay()
}

func (r *FileRotator) rotate() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close current log: %w", err)
	}
	r.file = nil

	ext := filepath.Ext(r.path)
	stem := strings.TrimSuffix(r.path, ext)
	rotated := fmt.Sprintf("%s-%s%s", stem, r.now().Format("20060102-150405.000"), ext)

	if err := os.Rename(r.path, rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}

	if err := r.open(); err != nil {
		return err
	}

	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		if r.compress {
			compressFile(rotated)
		}
		r.prune()
	}()
	return nil
}

func compressFile(path string) {
	in, err := os.Open(path)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return
	}

	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(path)
	_, err = io.Copy(gz, in)
	if cerr := gz.Close(); err == nil {
		err = cerr
	}
	out.Close()

	if err != nil {
		os.Remove(path + ".gz")
		return
	}
	os.Remove(path)
}

// prune deletes the oldest rotated files beyond maxBackups.
func (r *FileRotator) prune() {
	if r.maxBackups <= 0 {
		return
	}
	files, err := r.Backups()
	if err != nil || len(files) <= r.maxBackups {
		return
	}
	for _, f := range files[:len(files)-r.maxBackups] {
		os.Remove(f)
	}
}

// Backups returns rotated files, oldest first. Rotated names embed their
// timestamp so lexical order is chronological.
func (r *FileRotator) Backups() ([]string, error) {
	ext := filepath.Ext(r.path)
	stem := strings.TrimSuffix(r.path, ext)
	matches, err := filepath.Glob(stem + "-*" + ext + "*")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Close waits for background compression and closes the file.
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending.Wait()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
