package main

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coopernurse/gorp"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Catalogue is the immutable list of prepared scripts, in catalogue order.
// It is built once at startup and shared read-only by every room.
type Catalogue struct {
	Scripts []*Script
}

// Get falls back to the first script when the index is out of range, so a
// stale client can always create a room.
func (c *Catalogue) Get(index int) *Script {
	if index < 0 || index >= len(c.Scripts) {
		return c.Scripts[0]
	}
	return c.Scripts[index]
}

// LoadCatalogue reads every script JSON file under dir (in name order),
// validates it, seeds it into the scripts table and prepares the in-memory
// form. Validation failures abort startup; a catalogue with a broken script
// is worse than no server.
func LoadCatalogue(db *gorp.DbMap, dir string) (*Catalogue, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read scripts dir")
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, errors.Errorf("no scripts found in %v", dir)
	}

	catalogue := &Catalogue{}
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "read script %v", name)
		}
		script := &Script{}
		if err := json.Unmarshal(raw, script); err != nil {
			return nil, errors.Wrapf(err, "parse script %v", name)
		}
		if err := validateScript(script); err != nil {
			return nil, errors.Wrapf(err, "script %v", name)
		}
		deriveLineCounts(script)

		row, err := newScriptRow(script)
		if err != nil {
			return nil, errors.Wrapf(err, "encode script %v", name)
		}
		if err := db.Insert(row); err != nil {
			return nil, errors.Wrapf(err, "store script %v", name)
		}

		catalogue.Scripts = append(catalogue.Scripts, script)
		log.Printf("Loaded script %q (%v characters, %v beats)", script.Title, len(script.Characters), len(script.Beats))
	}
	return catalogue, nil
}

func validateScript(script *Script) error {
	if strings.TrimSpace(script.Title) == "" {
		return errors.New("missing title")
	}
	if len(script.Characters) == 0 {
		return errors.New("no characters")
	}
	if len(script.Beats) == 0 {
		return errors.New("no beats")
	}
	declared := map[string]bool{}
	for _, c := range script.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return errors.New("character with empty name")
		}
		if declared[c.Name] {
			return errors.Errorf("duplicate character %q", c.Name)
		}
		declared[c.Name] = true
	}
	for i, beat := range script.Beats {
		switch beat.Type {
		case BeatDialogue:
			if !declared[beat.Character] {
				return errors.Errorf("beat %v speaks for undeclared character %q", i, beat.Character)
			}
		case BeatDirection:
			// direction beats carry no character
		default:
			return errors.Errorf("beat %v has unknown type %q", i, beat.Type)
		}
		if strings.TrimSpace(beat.Text) == "" {
			return errors.Errorf("beat %v has no text", i)
		}
	}
	return nil
}

func deriveLineCounts(script *Script) {
	counts := map[string]int{}
	for _, beat := range script.Beats {
		if beat.Type == BeatDialogue {
			counts[beat.Character]++
		}
	}
	for i := range script.Characters {
		script.Characters[i].LineCount = counts[script.Characters[i].Name]
	}
}

func newScriptRow(script *Script) (*ScriptRow, error) {
	characters, err := json.Marshal(script.Characters)
	if err != nil {
		return nil, err
	}
	beats, err := json.Marshal(script.Beats)
	if err != nil {
		return nil, err
	}
	return &ScriptRow{
		Title:       script.Title,
		Author:      script.Author,
		Description: script.Description,
		Characters:  string(characters),
		Beats:       string(beats),
	}, nil
}

// prepare decodes a stored row back into the prepared form, re-deriving the
// line counts rather than trusting the stored ones.
func (row *ScriptRow) prepare() (*Script, error) {
	script := &Script{
		Title:       row.Title,
		Author:      row.Author,
		Description: row.Description,
	}
	if err := json.Unmarshal([]byte(row.Characters), &script.Characters); err != nil {
		return nil, errors.Wrapf(err, "decode characters for %q", row.Title)
	}
	if err := json.Unmarshal([]byte(row.Beats), &script.Beats); err != nil {
		return nil, errors.Wrapf(err, "decode beats for %q", row.Title)
	}
	deriveLineCounts(script)
	return script, nil
}
