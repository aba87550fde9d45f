// Package dotenv loads KEY=VALUE pairs from a .env file into the process
// environment before configuration is read.
package dotenv

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Load reads a dotenv-style file and sets each KEY=VALUE pair in the
// process environment. Variables already present in the environment are
// left untouched, and a missing file is not an error.
func Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("dotenv: open %q: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}

		val = unquote(strings.TrimSpace(val))
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("dotenv: set %q: %w", key, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("dotenv: read %q: %w", path, err)
	}
	return nil
}

// unquote strips one layer of matching single or double quotes.
func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
		return v[1 : len(v)-1]
	}
	return v
}
