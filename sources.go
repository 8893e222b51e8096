package dataminer

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/jward/dataminer/internal/config"
	"github.com/jward/dataminer/internal/files"
	"github.com/jward/dataminer/internal/gamedata"
	"github.com/jward/dataminer/internal/text"
)

// Required-file rule names.
const (
	RuleCharaBase        = "chara_base"
	RuleCharaParam       = "chara_param"
	RuleGrowthTable      = "growth_table"
	RuleCharaName        = "chara_name"
	RuleCharaNameRoma    = "chara_name_roma"
	RuleCharaDescription = "chara_description"
	RuleSeriesName       = "series_name"
)

// Layout maps each required file to the dump chosen for it.
type Layout struct {
	// Character maps a character rule name to a file path.
	Character map[string]string
	// Text maps locale, then text rule name, to a file path.
	Text map[string]map[string]string
}

// Sources are the decoded tables one mining run reads.
type Sources struct {
	Base   *gamedata.Table
	Param  *gamedata.Table
	Growth *gamedata.Table

	// Text holds each locale's localization tables.
	Text map[string]text.Sources
}

// Locales returns the locales present in s, sorted.
func (s *Sources) Locales() []string {
	return slices.Sorted(maps.Keys(s.Text))
}

func characterRules(cfg *config.Config) []files.Rule {
	r := cfg.Character.Rules
	return []files.Rule{
		{Name: RuleCharaBase, Pattern: r.Base},
		{Name: RuleCharaParam, Pattern: r.Param},
		{Name: RuleGrowthTable, Pattern: r.Growth},
	}
}

func textRules(cfg *config.Config) []files.Rule {
	r := cfg.Text.Rules
	return []files.Rule{
		{Name: RuleCharaName, Pattern: r.Names},
		{Name: RuleCharaNameRoma, Pattern: r.RomaNames},
		{Name: RuleCharaDescription, Pattern: r.Descriptions},
		{Name: RuleSeriesName, Pattern: r.Series},
	}
}

// Discover matches every required-file rule against the extraction folder.
// All unmatched rules, across the character folder and every locale, are
// collected into one *files.MissingError. Text rules are reported as
// "locale/rule".
func Discover(cfg *config.Config) (*Layout, error) {
	layout := &Layout{Text: make(map[string]map[string]string, len(cfg.Text.Locales))}
	var missing []string

	found, err := files.Match(cfg.CharacterDir(), characterRules(cfg))
	if err := collectMissing(err, "", &missing); err != nil {
		return nil, err
	}
	layout.Character = found

	for _, locale := range cfg.Text.Locales {
		found, err := files.Match(cfg.TextDir(locale), textRules(cfg))
		if err := collectMissing(err, locale+"/", &missing); err != nil {
			return nil, err
		}
		layout.Text[locale] = found
	}

	if len(missing) > 0 {
		return layout, &files.MissingError{Rules: missing}
	}
	return layout, nil
}

// collectMissing appends the rules of a *files.MissingError to missing and
// returns any other error unchanged.
func collectMissing(err error, prefix string, missing *[]string) error {
	if err == nil {
		return nil
	}
	var me *files.MissingError
	if !errors.As(err, &me) {
		return err
	}
	for _, r := range me.Rules {
		*missing = append(*missing, prefix+r)
	}
	return nil
}

// Load decodes every file in layout. The character files and each locale's
// files are decoded concurrently.
func Load(ctx context.Context, dec gamedata.Decoder, layout *Layout) (*Sources, error) {
	src := &Sources{}
	locales := make([]string, 0, len(layout.Text))
	for l := range layout.Text {
		locales = append(locales, l)
	}
	texts := make([]text.Sources, len(locales))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if src.Base, err = openTable(gctx, dec, layout.Character[RuleCharaBase], gamedata.CharaBase); err != nil {
			return err
		}
		if src.Param, err = openTable(gctx, dec, layout.Character[RuleCharaParam], gamedata.CharaParam); err != nil {
			return err
		}
		src.Growth, err = openTable(gctx, dec, layout.Character[RuleGrowthTable], gamedata.GrowthTable)
		return err
	})
	for i, locale := range locales {
		g.Go(func() error {
			paths := layout.Text[locale]
			ts := &texts[i]
			var err error
			if ts.Names, err = openTable(gctx, dec, paths[RuleCharaName], gamedata.NounText); err != nil {
				return fmt.Errorf("%s: %w", locale, err)
			}
			if ts.RomaNames, err = openTable(gctx, dec, paths[RuleCharaNameRoma], gamedata.NounText); err != nil {
				return fmt.Errorf("%s: %w", locale, err)
			}
			if ts.Descriptions, err = openTable(gctx, dec, paths[RuleCharaDescription], gamedata.DescriptionText); err != nil {
				return fmt.Errorf("%s: %w", locale, err)
			}
			if ts.Series, err = openTable(gctx, dec, paths[RuleSeriesName], gamedata.NounText); err != nil {
				return fmt.Errorf("%s: %w", locale, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	src.Text = make(map[string]text.Sources, len(locales))
	for i, l := range locales {
		src.Text[l] = texts[i]
	}
	return src, nil
}

func openTable(ctx context.Context, dec gamedata.Decoder, path string, schema *gamedata.Schema) (*gamedata.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("no file for table %s", schema.Table)
	}
	db, err := dec.Decode(path)
	if err != nil {
		return nil, err
	}
	t, err := schema.Open(db)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
