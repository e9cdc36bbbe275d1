package fileutil

import (
	"errors"
	"io/fs"
	"reflect"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"TestFile.txt":          {Data: []byte("test")},
		"UPPERCASE.AUTO":        {Data: []byte("upper")},
		"lowercase.auto":        {Data: []byte("lower")},
		"scripts/Smoke.Auto":    {Data: []byte("fn run() {}")},
		"scripts/readme.md":     {Data: []byte("#")},
		"scripts/nested/x.auto": {Data: []byte("")},
	}
}

func TestFindFileCaseInsensitive(t *testing.T) {
	tests := []struct {
		name          string
		dir           string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{"exact match", ".", "TestFile.txt", true, "TestFile.txt"},
		{"lowercase search for mixed case file", ".", "testfile.txt", true, "TestFile.txt"},
		{"uppercase search for mixed case file", ".", "TESTFILE.TXT", true, "TestFile.txt"},
		{"mixed case search for uppercase file", ".", "Uppercase.auto", true, "UPPERCASE.AUTO"},
		{"subdirectory", "scripts", "SMOKE.AUTO", true, "scripts/Smoke.Auto"},
		{"empty dir means root", "", "lowercase.AUTO", true, "lowercase.auto"},
		{"directories are skipped", "scripts", "nested", false, ""},
		{"missing file", ".", "nonexistent.txt", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFileCaseInsensitive(testFS(), tt.dir, tt.searchName)
			if !tt.shouldFind {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if !errors.Is(err, fs.ErrNotExist) {
					t.Errorf("error should wrap fs.ErrNotExist: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expectedMatch {
				t.Errorf("got %q, want %q", got, tt.expectedMatch)
			}
		})
	}
}

func TestFindFileCaseInsensitive_MissingDirectory(t *testing.T) {
	if _, err := FindFileCaseInsensitive(testFS(), "nope", "a.txt"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestReadFile(t *testing.T) {
	data, actual, err := ReadFile(testFS(), "/scripts/smoke.auto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actual != "scripts/Smoke.Auto" {
		t.Errorf("actual = %q", actual)
	}
	if string(data) != "fn run() {}" {
		t.Errorf("data = %q", data)
	}

	if _, _, err := ReadFile(testFS(), "scripts\\SMOKE.auto"); err != nil {
		t.Errorf("backslash separators should resolve: %v", err)
	}
}

func TestFindBySuffix(t *testing.T) {
	got, err := FindBySuffix(testFS(), ".", ".auto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"UPPERCASE.AUTO", "lowercase.auto"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = FindBySuffix(testFS(), "scripts", ".AUTO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"scripts/Smoke.Auto"}) {
		t.Errorf("got %v", got)
	}
}
