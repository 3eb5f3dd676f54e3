package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iancoleman/orderedmap"
)

var ErrMalformed = errors.New("config: malformed key=value line")

// ReadKeyValues parses "key = value" lines, keeping file order. Blank lines
// and lines starting with '#' are ignored; a repeated key keeps its first
// position and takes the last value.
func ReadKeyValues(r io.Reader) (*orderedmap.OrderedMap, error) {
	m := orderedmap.New()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformed, line, text)
		}
		m.Set(key, strings.TrimSpace(value))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func ReadKeyValueFile(path string) (*orderedmap.OrderedMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadKeyValues(f)
}

// String returns the raw value stored under key.
func String(m *orderedmap.OrderedMap, key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float parses the value stored under key. ok is false when the key is
// absent; err is set when it is present but not a number.
func Float(m *orderedmap.OrderedMap, key string) (v float64, ok bool, err error) {
	s, ok := String(m, key)
	if !ok {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return v, true, nil
}

// Floats returns every value in file order, parsed as numbers.
func Floats(m *orderedmap.OrderedMap) ([]float64, error) {
	keys := m.Keys()
	out := make([]float64, 0, len(keys))
	for _, k := range keys {
		v, _, err := Float(m, k)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
