// Package v1 implements version 1 of the register API.
package v1

import (
	"errors"

	"github.com/database64128/mmio-go"
	"github.com/database64128/mmio-go/regmap"
	"github.com/gofiber/fiber/v2"
)

// StandardError is the standard error response.
type StandardError struct {
	Message string `json:"error"`
}

// ServerInfo contains information about the API server.
type ServerInfo struct {
	Name       string `json:"server"`
	Version    string `json:"version"`
	APIVersion string `json:"apiVersion"`
	ReadOnly   bool   `json:"readOnly"`
}

// Routes sets up routes for the /v1 endpoint.
// If readOnly is true, routes that write to registers are not registered.
func Routes(router fiber.Router, regs *regmap.Map, readOnly bool) *RegisterManager {
	v1 := router.Group("/v1")
	rm := NewRegisterManager(regs, readOnly)
	rm.Routes(v1)
	return rm
}

// sendError maps register map errors to status codes.
func sendError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, regmap.ErrRegisterNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, regmap.ErrReadOnly):
		status = fiber.StatusForbidden
	case errors.Is(err, regmap.ErrValueOverflow):
		status = fiber.StatusBadRequest
	case errors.Is(err, regmap.ErrClosed):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(&StandardError{Message: err.Error()})
}

func serverInfo(readOnly bool) ServerInfo {
	return ServerInfo{
		Name:       "mmio-go",
		Version:    mmio.Version,
		APIVersion: "v1",
		ReadOnly:   readOnly,
	}
}
