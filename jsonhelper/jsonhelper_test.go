package jsonhelper

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	var v struct {
		Interval Duration `json:"interval"`
	}
	if err := json.Unmarshal([]byte(`{"interval":"1m30s"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.Interval.Value() != 90*time.Second {
		t.Errorf("v.Interval = %v, want 1m30s", v.Interval.Value())
	}

	b, err := json.Marshal(&v)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"interval":"1m30s"}` {
		t.Errorf("json.Marshal() = %s", b)
	}

	if err := json.Unmarshal([]byte(`{"interval":"soon"}`), &v); err == nil {
		t.Error("json.Unmarshal() with invalid duration: error = nil")
	}
}

func TestUint64UnmarshalText(t *testing.T) {
	for _, c := range []struct {
		text    string
		want    uint64
		wantErr bool
	}{
		{"0", 0, false},
		{"4096", 4096, false},
		{"0x3f200000", 0x3f200000, false},
		{"0x3F20_0004", 0x3f200004, false},
		{"0o17", 0o17, false},
		{"0b1010", 0b1010, false},
		{"0xffffffffffffffff", ^uint64(0), false},
		{"", 0, true},
		{"-1", 0, true},
		{"0x1_0000_0000_0000_0000", 0, true},
		{"register", 0, true},
	} {
		var u Uint64
		err := u.UnmarshalText([]byte(c.text))
		if (err != nil) != c.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v, wantErr %v", c.text, err, c.wantErr)
			continue
		}
		if !c.wantErr && u.Value() != c.want {
			t.Errorf("UnmarshalText(%q) = %#x, want %#x", c.text, u.Value(), c.want)
		}
	}
}

func TestUint64MarshalText(t *testing.T) {
	for _, c := range []struct {
		value Uint64
		want  string
	}{
		{0, "0x0"},
		{0x3f200000, "0x3f200000"},
		{Uint64(^uint64(0)), "0xffffffffffffffff"},
	} {
		b, err := c.value.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != c.want {
			t.Errorf("MarshalText(%d) = %q, want %q", c.value, b, c.want)
		}
	}
}
