package rules

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// Set holds the active Config. Evaluators read it on every evaluation, so a reload takes
// effect on the next refresh without locking.
type Set struct {
	cfg atomic.Pointer[Config]
}

// NewSet creates a set holding cfg, or the defaults when cfg is nil.
func NewSet(cfg *Config) *Set {
	if cfg == nil {
		cfg = Default()
	}
	s := &Set{}
	s.cfg.Store(cfg)
	return s
}

// Current returns the active rules.
func (s *Set) Current() *Config {
	return s.cfg.Load()
}

// Swap atomically replaces the active rules.
func (s *Set) Swap(cfg *Config) {
	s.cfg.Store(cfg)
}

// Reloader polls a rules file and swaps in a new Config whenever the file changes.
type Reloader struct {
	path         string
	set          *Set
	pollInterval time.Duration
	lastModTime  time.Time
	lastSize     int64
}

// NewReloader creates a reloader for path feeding set.
func NewReloader(path string, set *Set, pollInterval time.Duration) *Reloader {
	return &Reloader{
		path:         path,
		set:          set,
		pollInterval: pollInterval,
	}
}

// Start loads the file once and then polls it in a background goroutine until ctx is
// cancelled. An invalid file at startup is an error; later invalid edits are logged and
// the previous rules stay active.
func (r *Reloader) Start(ctx context.Context) error {
	if _, err := r.checkAndReload(); err != nil {
		return err
	}

	slog.Info("Starting rules file poller",
		"path", r.path,
		"poll_interval", r.pollInterval,
	)

	go r.pollLoop(ctx)
	return nil
}

func (r *Reloader) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Rules file poller stopped")
			return
		case <-ticker.C:
			if _, err := r.checkAndReload(); err != nil {
				slog.Error("Failed to reload rules, keeping previous version",
					"path", r.path,
					"error", err,
				)
			}
		}
	}
}

// checkAndReload reloads the file when its modification time or size changed. It reports
// whether a new Config was installed.
func (r *Reloader) checkAndReload() (bool, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return false, fmt.Errorf("failed to stat rules file: %w", err)
	}
	if info.ModTime().Equal(r.lastModTime) && info.Size() == r.lastSize {
		return false, nil
	}

	cfg, err := Load(r.path)
	if err != nil {
		return false, err
	}

	r.set.Swap(cfg)
	r.lastModTime = info.ModTime()
	r.lastSize = info.Size()

	slog.Info("Rules reloaded",
		"path", r.path,
		"severe_keywords", len(cfg.Weather.Severe),
		"advisory_keywords", len(cfg.News.AdvisoryKeywords),
	)
	return true, nil
}

// ReloadNow forces an immediate check of the rules file.
func (r *Reloader) ReloadNow() error {
	_, err := r.checkAndReload()
	return err
}
