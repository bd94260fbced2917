// Package service assembles the register map, API server and watcher from configuration.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/database64128/mmio-go/api"
	"github.com/database64128/mmio-go/regmap"
	"go.uber.org/zap"
)

// Service is the common service abstraction in this module.
type Service interface {
	// ZapField returns a [zap.Field] that identifies the service.
	ZapField() zap.Field

	// Start starts the service.
	Start(ctx context.Context) error

	// Stop stops the service.
	Stop() error
}

// Config is the main configuration structure.
// It may be marshaled as or unmarshaled from JSON.
type Config struct {
	Registers regmap.Config `json:"registers"`
	API       api.Config    `json:"api"`
	Watch     WatchConfig   `json:"watch"`
}

// Manager initializes the register map and returns a manager for the configured services.
func (sc *Config) Manager(logger *zap.Logger) (*Manager, error) {
	if len(sc.Registers) == 0 {
		return nil, errors.New("no registers configured")
	}

	regs, err := sc.Registers.Open(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open register map: %w", err)
	}

	services := make([]Service, 0, 2)

	if sc.API.Enabled {
		apiServer, err := sc.API.NewServer(logger, regs)
		if err != nil {
			regs.Close()
			return nil, fmt.Errorf("failed to create API server: %w", err)
		}
		services = append(services, apiServer)
	}

	if sc.Watch.Enabled {
		watcher, err := sc.Watch.NewWatcher(logger, regs)
		if err != nil {
			regs.Close()
			return nil, fmt.Errorf("failed to create watcher: %w", err)
		}
		services = append(services, watcher)
	}

	return &Manager{services, regs, logger}, nil
}

// Manager manages the services.
type Manager struct {
	services []Service
	regs     *regmap.Map
	logger   *zap.Logger
}

// Registers returns the register map shared by all services.
func (m *Manager) Registers() *regmap.Map {
	return m.regs
}

// Start starts all configured services.
func (m *Manager) Start(ctx context.Context) error {
	for _, s := range m.services {
		if err := s.Start(ctx); err != nil {
			kv := s.ZapField()
			return fmt.Errorf("failed to start %s=%q: %w", kv.Key, kv.String, err)
		}
	}
	return nil
}

// Stop stops all running services.
func (m *Manager) Stop() {
	for _, s := range m.services {
		kv := s.ZapField()
		if err := s.Stop(); err != nil {
			m.logger.Warn("Failed to stop service", kv, zap.Error(err))
			continue
		}
		m.logger.Info("Stopped service", kv)
	}
}

// Close releases the register map.
func (m *Manager) Close() {
	m.regs.Close()
}
