// Package prefixset builds IP prefix sets for restricting which clients may access registers.
package prefixset

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/database64128/mmio-go/pagemap"
	"go4.org/netipx"
)

// Config is the configuration for a prefix set.
//
// The set is the union of Prefixes and the prefixes listed in the file at Path.
type Config struct {
	// Prefixes lists prefixes or single addresses inline.
	Prefixes []string `json:"prefixes,omitempty"`

	// Path is an optional text file with one prefix or address per line.
	// Empty lines and everything after a '#' are ignored.
	Path string `json:"path,omitempty"`
}

// IPSet creates a prefix set from the configuration.
func (c Config) IPSet() (*netipx.IPSet, error) {
	var sb netipx.IPSetBuilder

	for _, s := range c.Prefixes {
		prefix, err := parsePrefixOrAddr(s)
		if err != nil {
			return nil, err
		}
		sb.AddPrefix(prefix)
	}

	if c.Path != "" {
		data, close, err := pagemap.ReadFile[string](c.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load prefix set %s: %w", c.Path, err)
		}
		defer close()

		if err = addText(&sb, data); err != nil {
			return nil, fmt.Errorf("failed to parse prefix set %s: %w", c.Path, err)
		}
	}

	return sb.IPSet()
}

// IPSetFromText parses prefixes from the text and builds a prefix set.
func IPSetFromText(text string) (*netipx.IPSet, error) {
	var sb netipx.IPSetBuilder
	if err := addText(&sb, text); err != nil {
		return nil, err
	}
	return sb.IPSet()
}

func addText(sb *netipx.IPSetBuilder, text string) error {
	for line := range strings.Lines(text) {
		if i := strings.IndexByte(line, '#'); i != -1 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		prefix, err := parsePrefixOrAddr(line)
		if err != nil {
			return err
		}
		sb.AddPrefix(prefix)
	}
	return nil
}

// parsePrefixOrAddr parses s as a prefix, or as an address taken as a single-address prefix.
func parsePrefixOrAddr(s string) (netip.Prefix, error) {
	if strings.IndexByte(s, '/') != -1 {
		return netip.ParsePrefix(s)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// IPSetToText returns the text representation of the prefix set.
func IPSetToText(s *netipx.IPSet) []byte {
	prefixes := s.Prefixes()
	b := make([]byte, 0, 20*len(prefixes))
	for _, prefix := range prefixes {
		b = prefix.AppendTo(b)
		b = append(b, '\n')
	}
	return b
}
