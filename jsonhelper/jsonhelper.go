// Package jsonhelper provides types that make JSON configuration friendlier to edit by hand.
package jsonhelper

import (
	"strconv"
	"time"
)

// Duration is [time.Duration] but implements [encoding.TextMarshaler] and [encoding.TextUnmarshaler].
type Duration time.Duration

// Value returns the duration as [time.Duration].
func (d Duration) Value() time.Duration {
	return time.Duration(d)
}

// MarshalText implements [encoding.TextMarshaler.MarshalText].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler.UnmarshalText].
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// Uint64 is a uint64 stored as text, in hexadecimal with a 0x prefix.
//
// When unmarshaling, any base prefix accepted by [strconv.ParseUint] with base 0 works,
// as do underscores between digits, so "0x3f20_0000", "0o17" and "4096" are all valid.
type Uint64 uint64

// Value returns the number as uint64.
func (u Uint64) Value() uint64 {
	return uint64(u)
}

// MarshalText implements [encoding.TextMarshaler.MarshalText].
func (u Uint64) MarshalText() ([]byte, error) {
	b := make([]byte, 0, 18)
	b = append(b, "0x"...)
	return strconv.AppendUint(b, uint64(u), 16), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler.UnmarshalText].
func (u *Uint64) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 0, 64)
	if err != nil {
		return err
	}
	*u = Uint64(v)
	return nil
}
