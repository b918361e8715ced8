package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCollectJSONFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, "b.json", `{"records":[{"raw_text":"beta"}]}`)
	writeFixture(t, root, "a.json", `{"records":[{"raw_text":"alpha"}]}`)
	writeFixture(t, root, "notes.txt", "not a payload")
	writeFixture(t, root, ".hidden.json", "{}")
	writeFixture(t, root, filepath.Join("nested", "c.json"), `{"records":[{"raw_text":"gamma"}]}`)
	writeFixture(t, root, filepath.Join(".archive", "d.json"), "{}")

	t.Run("recursive", func(t *testing.T) {
		files, err := collectJSONFiles(root, true)
		if err != nil {
			t.Fatalf("collectJSONFiles failed: %v", err)
		}
		assertPaths(t, files, []string{
			filepath.Join(root, "a.json"),
			filepath.Join(root, "b.json"),
			filepath.Join(root, "nested", "c.json"),
		})
	})

	t.Run("top level only", func(t *testing.T) {
		files, err := collectJSONFiles(root, false)
		if err != nil {
			t.Fatalf("collectJSONFiles failed: %v", err)
		}
		assertPaths(t, files, []string{
			filepath.Join(root, "a.json"),
			filepath.Join(root, "b.json"),
		})
	})
}

func TestValidatePayloadFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFixture(t, root, "good.json", `{"records":[{"raw_text":"alpha"}]}`)
	writeFixture(t, root, "broken.json", `{"records":`)
	writeFixture(t, root, "empty_text.json", `{"records":[{"raw_text":""}]}`)

	if err := validatePayloadFile(filepath.Join(root, "good.json")); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if err := validatePayloadFile(filepath.Join(root, "broken.json")); err == nil {
		t.Fatal("malformed JSON accepted")
	}
	if err := validatePayloadFile(filepath.Join(root, "empty_text.json")); err == nil {
		t.Fatal("schema violation accepted")
	}
}

func assertPaths(t *testing.T, have, want []string) {
	t.Helper()
	if len(have) != len(want) {
		t.Fatalf("have %d files (%v), want %d", len(have), have, len(want))
	}
	for i := range want {
		if have[i] != want[i] {
			t.Fatalf("file %d: have %s want %s", i, have[i], want[i])
		}
	}
}

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}
