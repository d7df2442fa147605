package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJSONSourceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	data := `[
		{"doc_id": 10, "filename": "a.md", "content": "alpha"},
		{"doc_id": 20, "filename": "b.md", "content": "beta"}
	]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := NewJSONSource(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].ID != 10 || docs[0].Filename != "a.md" || docs[0].Content != "alpha" {
		t.Errorf("unexpected first doc: %+v", docs[0])
	}
	if docs[1].ID != 20 {
		t.Errorf("unexpected second doc ID: %d", docs[1].ID)
	}
}

func TestJSONSourceImplicitIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	data := `[
		{"filename": "a.md", "content": "alpha"},
		{"filename": "b.md", "content": "beta"}
	]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := NewJSONSource(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if docs[0].ID != 0 || docs[1].ID != 1 {
		t.Errorf("records without doc_id should get array positions, got %d and %d",
			docs[0].ID, docs[1].ID)
	}
}

func TestJSONSourceDuplicateID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	data := `[
		{"doc_id": 1, "filename": "a.md", "content": "alpha"},
		{"doc_id": 1, "filename": "b.md", "content": "beta"}
	]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewJSONSource(path).Load(); err == nil {
		t.Fatal("expected error for duplicate doc_id")
	}
}

func TestJSONSourceMissingFile(t *testing.T) {
	if _, err := NewJSONSource(filepath.Join(t.TempDir(), "nope.json")).Load(); err == nil {
		t.Fatal("expected error for missing dataset")
	}
}

func TestDirSourceLoad(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"readme.md":         "top level",
		"docs/guide.md":     "guide",
		"docs/notes.txt":    "notes",
		"docs/image.png":    "binary",
		"node_modules/x.md": "dependency",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	src := NewDirSource(root,
		[]string{"**/*.md", "**/*.txt"},
		[]string{"**/node_modules/**", "node_modules/**"})
	docs, err := src.Load()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"docs/guide.md", "docs/notes.txt", "readme.md"}
	if len(docs) != len(want) {
		names := make([]string, len(docs))
		for i, d := range docs {
			names[i] = d.Filename
		}
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i, doc := range docs {
		if doc.Filename != want[i] {
			t.Errorf("doc %d: filename %q, want %q", i, doc.Filename, want[i])
		}
		if doc.ID != i {
			t.Errorf("doc %d: ID %d, IDs should follow sorted path order", i, doc.ID)
		}
	}
}

func TestDirSourceDeterministicIDs(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"b.md", "a.md", "c.md"} {
		if err := os.WriteFile(filepath.Join(root, rel), []byte(rel), 0644); err != nil {
			t.Fatal(err)
		}
	}

	src := NewDirSource(root, []string{"**/*.md"}, nil)
	first, err := src.Load()
	if err != nil {
		t.Fatal(err)
	}
	second, err := src.Load()
	if err != nil {
		t.Fatal(err)
	}

	for i := range first {
		if first[i].ID != second[i].ID || first[i].Filename != second[i].Filename {
			t.Fatal("repeated loads should assign identical IDs")
		}
	}
	if first[0].Filename != "a.md" {
		t.Errorf("IDs should follow sorted paths, first doc is %q", first[0].Filename)
	}
}
