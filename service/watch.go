package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/database64128/mmio-go/jsonhelper"
	"github.com/database64128/mmio-go/regmap"
	"go.uber.org/zap"
)

const defaultWatchInterval = time.Second

// WatchConfig is the configuration for the register watcher.
type WatchConfig struct {
	// Enabled controls whether the watcher is enabled.
	Enabled bool `json:"enabled"`

	// Interval is the polling interval. Defaults to 1s.
	Interval jsonhelper.Duration `json:"interval"`

	// Registers lists the registers to watch. If empty, all registers are watched.
	Registers []string `json:"registers"`
}

// NewWatcher returns a watcher that polls registers and logs every change.
func (wc *WatchConfig) NewWatcher(logger *zap.Logger, regs *regmap.Map) (*Watcher, error) {
	interval := wc.Interval.Value()
	switch {
	case interval == 0:
		interval = defaultWatchInterval
	case interval < 0:
		return nil, fmt.Errorf("negative watch interval: %s", interval)
	}

	names := wc.Registers
	if len(names) == 0 {
		names = regs.Names()
	}
	for _, name := range names {
		if _, ok := regs.RegisterConfig(name); !ok {
			return nil, fmt.Errorf("%w: %q", regmap.ErrRegisterNotFound, name)
		}
	}

	return &Watcher{
		logger:   logger,
		regs:     regs,
		names:    names,
		interval: interval,
		last:     make([]uint64, len(names)),
	}, nil
}

// Watcher polls registers at a fixed interval and logs changes.
type Watcher struct {
	logger   *zap.Logger
	regs     *regmap.Map
	names    []string
	interval time.Duration
	last     []uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// String implements [fmt.Stringer].
func (w *Watcher) String() string {
	return "register watcher"
}

// ZapField returns a [zap.Field] that identifies the watcher.
func (w *Watcher) ZapField() zap.Field {
	return zap.String("service", w.String())
}

// Start takes the initial readings and starts polling.
func (w *Watcher) Start(ctx context.Context) error {
	for i, name := range w.names {
		v, err := w.regs.Read(name)
		if err != nil {
			return err
		}
		w.last[i] = v
		w.logger.Info("Watching register", zap.String("register", name), zap.Uint64("value", v))
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.poll() {
				return
			}
		}
	}
}

// poll reads every watched register once. It returns false if the register map is closed.
func (w *Watcher) poll() bool {
	for i, name := range w.names {
		v, err := w.regs.Read(name)
		if err != nil {
			if errors.Is(err, regmap.ErrClosed) {
				w.logger.Warn("Register map closed, stopping watcher")
				return false
			}
			w.logger.Warn("Failed to read register", zap.String("register", name), zap.Error(err))
			continue
		}
		if v != w.last[i] {
			w.logger.Info("Register changed",
				zap.String("register", name),
				zap.Uint64("oldValue", w.last[i]),
				zap.Uint64("newValue", v),
			)
			w.last[i] = v
		}
	}
	return true
}

// Stop stops polling and waits for the polling goroutine to exit.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return nil
}
