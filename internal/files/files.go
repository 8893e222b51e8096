// Package files finds the decoded table dumps the miner needs and prepares
// the output folder.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrMissingFiles is returned when one or more rules match no file. The
// dumps have to be produced by the external extractor first.
var ErrMissingFiles = errors.New("required files missing")

// Rule names a required file and the pattern its base name must match.
type Rule struct {
	Name    string
	Pattern string
}

// MissingError lists every rule that matched nothing.
type MissingError struct {
	Rules []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingFiles, strings.Join(e.Rules, ", "))
}

func (e *MissingError) Unwrap() error { return ErrMissingFiles }

// Match resolves each rule against the regular files in dir. When several
// files match a rule, the lexicographically greatest name wins, so the
// newest versioned dump is picked. The result maps rule name to full path.
//
// A missing dir counts as every rule missing. Unmatched rules are returned
// as a *MissingError naming them in rule order.
func Match(dir string, rules []Rule) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	found := make(map[string]string, len(rules))
	var missing []string
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}

		best := ""
		for _, e := range entries {
			if e.IsDir() || !re.MatchString(e.Name()) {
				continue
			}
			if e.Name() > best {
				best = e.Name()
			}
		}
		if best == "" {
			missing = append(missing, rule.Name)
			continue
		}
		found[rule.Name] = filepath.Join(dir, best)
	}

	if len(missing) > 0 {
		return found, &MissingError{Rules: missing}
	}
	return found, nil
}

// PrepareOutput creates dir and its text subdirectory. With fresh set, any
// existing dir is removed first.
func PrepareOutput(dir, textDir string, fresh bool) error {
	if fresh {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clear output folder: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, textDir), 0755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}
	return nil
}
