package dataminer

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jward/dataminer/internal/runtime"
	"github.com/jward/dataminer/internal/store"
	"github.com/jward/dataminer/scripts"
)

// CheckResult is the outcome of one consistency check script.
type CheckResult struct {
	Name     string           `json:"name"`
	Findings runtime.Findings `json:"findings"`
	Err      string           `json:"error,omitempty"`
}

// Check runs every embedded consistency check against the mined output. A
// failing script is recorded in its result and does not stop the others;
// the returned error is non-nil only when the stores cannot be opened or at
// least one check failed.
func (m *Miner) Check(ctx context.Context) ([]CheckResult, error) {
	dbs, closeAll, err := m.openForCheck()
	if err != nil {
		return nil, err
	}
	defer closeAll()

	rt := runtime.NewRuntime(dbs, "",
		runtime.WithRuntimeFS(scripts.FS),
		runtime.WithLogger(m.logger),
	)
	globals := map[string]any{
		"reference_locale": m.cfg.Check.ReferenceLocale,
		"compare_locale":   m.cfg.Check.CompareLocale,
	}

	var results []CheckResult
	failed := 0
	for _, name := range scripts.Checks() {
		findings, err := rt.RunScript(ctx, runtime.CheckScriptPath(name), globals)
		res := CheckResult{Name: name, Findings: findings}
		if err != nil {
			res.Err = err.Error()
			failed++
		}
		results = append(results, res)
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return results, nil
}

// openForCheck opens the character store and every configured locale's text
// store read-only, keyed by the names the check scripts use.
func (m *Miner) openForCheck() (map[string]*sql.DB, func(), error) {
	var opened []*store.Store
	closeAll := func() {
		for _, s := range opened {
			s.Close()
		}
	}

	dbs := make(map[string]*sql.DB)
	open := func(name, path string) error {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%s: %w (run 'dataminer mine' first)", path, err)
		}
		s, err := store.OpenReadOnly(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		opened = append(opened, s)
		dbs[name] = s.DB()
		return nil
	}

	if err := open("characters", m.cfg.CharacterDBPath()); err != nil {
		closeAll()
		return nil, nil, err
	}
	for _, locale := range m.cfg.Text.Locales {
		if err := open("text/"+locale, m.cfg.TextDBPath(locale)); err != nil {
			closeAll()
			return nil, nil, err
		}
	}
	return dbs, closeAll, nil
}
