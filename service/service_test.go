//go:build unix

package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/database64128/mmio-go/api"
	"github.com/database64128/mmio-go/jsoncfg"
	"github.com/database64128/mmio-go/jsonhelper"
	"github.com/database64128/mmio-go/regmap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const testConfigText = `{
    "registers": [
        {"name": "ctrl", "source": "anonymous", "width": 32},
        {"name": "status", "source": "anonymous", "width": 8, "readOnly": true}
    ],
    "api": {
        "enabled": true,
        "listen": "127.0.0.1:0",
        "readOnly": true
    },
    "watch": {
        "enabled": true,
        "interval": "10ms",
        "registers": ["ctrl"]
    }
}`

func TestConfigManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(testConfigText), 0644); err != nil {
		t.Fatal(err)
	}

	var sc Config
	if err := jsoncfg.Open(path, &sc); err != nil {
		t.Fatal(err)
	}
	if len(sc.Registers) != 2 || sc.Registers[1].Width != 8 || !sc.API.ReadOnly || sc.Watch.Interval.Value() != 10*time.Millisecond {
		t.Fatalf("sc = %+v", sc)
	}

	m, err := sc.Manager(zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if len(m.services) != 2 {
		t.Fatalf("len(m.services) = %d, want 2", len(m.services))
	}
	if err = m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err = m.Registers().Write("ctrl", 1); err != nil {
		t.Fatal(err)
	}
	m.Stop()
}

func TestConfigManagerErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)

	if _, err := (&Config{}).Manager(logger); err == nil {
		t.Error("Manager() with no registers: error = nil")
	}

	sc := Config{
		Registers: regmap.Config{{Name: "ctrl", Source: regmap.SourceAnonymous, Width: 32}},
		Watch:     WatchConfig{Enabled: true, Registers: []string{"missing"}},
	}
	if _, err := sc.Manager(logger); !errors.Is(err, regmap.ErrRegisterNotFound) {
		t.Errorf("Manager() error = %v, want %v", err, regmap.ErrRegisterNotFound)
	}

	sc = Config{
		Registers: regmap.Config{{Name: "ctrl", Source: regmap.SourceAnonymous, Width: 32}},
		API:       api.Config{Enabled: true},
	}
	if _, err := sc.Manager(logger); err == nil {
		t.Error("Manager() with API but no listen address: error = nil")
	}
}

func TestWatcherLogsChanges(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	regs, err := regmap.Config{
		{Name: "ctrl", Source: regmap.SourceAnonymous, Width: 32},
		{Name: "data", Source: regmap.SourceAnonymous, Width: 16},
	}.Open(logger)
	if err != nil {
		t.Fatal(err)
	}
	defer regs.Close()

	if err = regs.Write("ctrl", 3); err != nil {
		t.Fatal(err)
	}

	wc := WatchConfig{Interval: jsonhelper.Duration(time.Hour)}
	w, err := wc.NewWatcher(logger, regs)
	if err != nil {
		t.Fatal(err)
	}
	if err = w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if n := logs.FilterMessage("Watching register").Len(); n != 2 {
		t.Errorf("len(Watching register) = %d, want 2", n)
	}

	if !w.poll() {
		t.Fatal("w.poll() = false, want true")
	}
	if n := logs.FilterMessage("Register changed").Len(); n != 0 {
		t.Errorf("len(Register changed) = %d before any change, want 0", n)
	}

	if err = regs.Write("data", 0xbeef); err != nil {
		t.Fatal(err)
	}
	w.poll()
	changed := logs.FilterMessage("Register changed").AllUntimed()
	if len(changed) != 1 {
		t.Fatalf("len(Register changed) = %d, want 1", len(changed))
	}
	fields := changed[0].ContextMap()
	if fields["register"] != "data" || fields["oldValue"] != uint64(0) || fields["newValue"] != uint64(0xbeef) {
		t.Errorf("change fields = %v", fields)
	}

	regs.Close()
	if w.poll() {
		t.Error("w.poll() = true after the register map was closed, want false")
	}
}

func TestWatchConfigInvalidInterval(t *testing.T) {
	regs, err := regmap.Config{{Name: "ctrl", Source: regmap.SourceAnonymous, Width: 32}}.Open(zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	defer regs.Close()

	wc := WatchConfig{Interval: jsonhelper.Duration(-time.Second)}
	if _, err := wc.NewWatcher(zaptest.NewLogger(t), regs); err == nil {
		t.Error("NewWatcher() with negative interval: error = nil")
	}
}
