package v1

import (
	"strings"

	"github.com/database64128/mmio-go/jsonhelper"
	"github.com/database64128/mmio-go/regmap"
	"github.com/gofiber/fiber/v2"
)

// RegisterManager handles register API requests.
type RegisterManager struct {
	regs     *regmap.Map
	readOnly bool
}

// NewRegisterManager returns a new register manager.
func NewRegisterManager(regs *regmap.Map, readOnly bool) *RegisterManager {
	return &RegisterManager{
		regs:     regs,
		readOnly: readOnly,
	}
}

// Routes sets up routes for the /v1/registers and /v1/snapshot endpoints.
func (rm *RegisterManager) Routes(v1 fiber.Router) {
	v1.Get("", rm.GetServerInfo)
	v1.Get("/snapshot", rm.GetSnapshot)
	v1.Get("/registers", rm.ListRegisters)
	v1.Get("/registers/:name", rm.GetRegister)
	if !rm.readOnly {
		v1.Put("/registers/:name", rm.WriteRegister)
		v1.Patch("/registers/:name", rm.UpdateRegister)
	}
}

// GetServerInfo returns information about the API server.
func (rm *RegisterManager) GetServerInfo(c *fiber.Ctx) error {
	info := serverInfo(rm.readOnly)
	return c.JSON(&info)
}

// RegisterList contains the current values of all registers.
type RegisterList struct {
	Registers []regmap.Value `json:"registers"`
}

// ListRegisters lists all registers with their current values.
func (rm *RegisterManager) ListRegisters(c *fiber.Ctx) error {
	s, err := rm.regs.Snapshot()
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(&RegisterList{Registers: s.Registers})
}

// GetSnapshot returns the values of all registers and their digest.
// The digest doubles as the ETag, so clients polling with If-None-Match
// get 304 Not Modified until a register changes.
func (rm *RegisterManager) GetSnapshot(c *fiber.Ctx) error {
	s, err := rm.regs.Snapshot()
	if err != nil {
		return sendError(c, err)
	}
	etag := `"` + s.Digest + `"`
	c.Set(fiber.HeaderETag, etag)
	if etagMatches(c.Get(fiber.HeaderIfNoneMatch), etag) {
		return c.SendStatus(fiber.StatusNotModified)
	}
	return c.JSON(&s)
}

// etagMatches reports whether the If-None-Match header value matches etag.
// The header may be "*" or a comma-separated list of tags, weak or strong.
func etagMatches(header, etag string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == etag {
			return true
		}
	}
	return false
}

func (rm *RegisterManager) value(name string, v uint64) regmap.Value {
	rc, _ := rm.regs.RegisterConfig(name)
	return regmap.Value{
		Name:     name,
		Value:    jsonhelper.Uint64(v),
		Width:    rc.Width,
		ReadOnly: rc.ReadOnly,
	}
}

// GetRegister returns the current value of a register.
func (rm *RegisterManager) GetRegister(c *fiber.Ctx) error {
	name := c.Params("name")
	v, err := rm.regs.Read(name)
	if err != nil {
		return sendError(c, err)
	}
	value := rm.value(name, v)
	return c.JSON(&value)
}

// WriteRequest is the request body of a register write.
type WriteRequest struct {
	Value jsonhelper.Uint64 `json:"value"`
}

// WriteRegister writes a value to a register and returns the value read back.
func (rm *RegisterManager) WriteRegister(c *fiber.Ctx) error {
	var req WriteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(&StandardError{Message: err.Error()})
	}

	name := c.Params("name")
	if err := rm.regs.Write(name, req.Value.Value()); err != nil {
		return sendError(c, err)
	}

	v, err := rm.regs.Read(name)
	if err != nil {
		return sendError(c, err)
	}
	value := rm.value(name, v)
	return c.JSON(&value)
}

// UpdateRequest is the request body of a register update.
type UpdateRequest struct {
	Set   jsonhelper.Uint64 `json:"set"`
	Clear jsonhelper.Uint64 `json:"clear"`
}

// UpdateResponse is the response body of a register update.
type UpdateResponse struct {
	Name     string            `json:"name"`
	OldValue jsonhelper.Uint64 `json:"oldValue"`
	NewValue jsonhelper.Uint64 `json:"newValue"`
}

// UpdateRegister sets and clears bits of a register in a single read-modify-write.
func (rm *RegisterManager) UpdateRegister(c *fiber.Ctx) error {
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(&StandardError{Message: err.Error()})
	}

	name := c.Params("name")
	oldValue, newValue, err := rm.regs.Update(name, req.Set.Value(), req.Clear.Value())
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(&UpdateResponse{
		Name:     name,
		OldValue: jsonhelper.Uint64(oldValue),
		NewValue: jsonhelper.Uint64(newValue),
	})
}
