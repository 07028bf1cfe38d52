package main

import (
	"os"
	"path/filepath"
	"testing"
)

const sketchJSON = `{
	"title": "The Last Slice",
	"author": "P. Epperoni",
	"description": "Two roommates, one slice.",
	"characters": [
		{"name": "Jo", "difficulty": "easy"},
		{"name": "Max"}
	],
	"beats": [
		{"type": "dialogue", "character": "Jo", "text": "I bought this pizza."},
		{"type": "direction", "text": "Max slides the box away."},
		{"type": "dialogue", "character": "Max", "text": "Possession is the whole law."},
		{"type": "dialogue", "character": "Jo", "text": "Give it back."}
	]
}`

func writeScriptFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func Test_LoadCatalogue(t *testing.T) {
	dir := t.TempDir()
	writeScriptFile(t, dir, "01-last-slice.json", sketchJSON)

	db := initDb(filepath.Join(t.TempDir(), "catalogue_test.db"))
	defer db.Db.Close()

	catalogue, err := LoadCatalogue(db, dir)
	if err != nil {
		t.Fatalf("LoadCatalogue: %v", err)
	}
	if len(catalogue.Scripts) != 1 {
		t.Fatalf("Got %v scripts, want 1", len(catalogue.Scripts))
	}

	script := catalogue.Scripts[0]
	if script.Title != "The Last Slice" {
		t.Errorf("Title %q", script.Title)
	}
	counts := map[string]int{}
	for _, c := range script.Characters {
		counts[c.Name] = c.LineCount
	}
	if counts["Jo"] != 2 || counts["Max"] != 1 {
		t.Errorf("Derived line counts wrong: %v", counts)
	}

	// the table is the materialized catalogue
	n, err := db.SelectInt("select count(*) from scripts")
	if err != nil {
		t.Fatalf("Count scripts: %v", err)
	}
	if n != 1 {
		t.Errorf("Got %v rows, want 1", n)
	}
}

func Test_LoadCatalogue_RejectsUndeclaredCharacter(t *testing.T) {
	dir := t.TempDir()
	writeScriptFile(t, dir, "bad.json", `{
		"title": "Broken",
		"characters": [{"name": "Jo"}],
		"beats": [{"type": "dialogue", "character": "Ghost", "text": "Boo."}]
	}`)

	db := initDb(filepath.Join(t.TempDir(), "catalogue_bad_test.db"))
	defer db.Db.Close()

	if _, err := LoadCatalogue(db, dir); err == nil {
		t.Fatal("Script with an undeclared speaker loaded")
	}
}

func Test_LoadCatalogue_EmptyDir(t *testing.T) {
	db := initDb(filepath.Join(t.TempDir(), "catalogue_empty_test.db"))
	defer db.Db.Close()

	if _, err := LoadCatalogue(db, t.TempDir()); err == nil {
		t.Fatal("Empty catalogue accepted")
	}
}

func Test_Catalogue_GetFallback(t *testing.T) {
	first := testScript()
	catalogue := &Catalogue{Scripts: []*Script{first}}

	if catalogue.Get(-1) != first || catalogue.Get(3) != first {
		t.Error("Out-of-range index did not fall back to the first script")
	}
	if catalogue.Get(0) != first {
		t.Error("Index 0 did not return the first script")
	}
}
