// Package fileutil provides case-insensitive file lookup over fs.FS.
package fileutil

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// FindFileCaseInsensitive searches dir in fsys for a file named filename,
// ignoring case. An exact match wins over a case-folded one.
//
// Example:
//
//	name, err := FindFileCaseInsensitive(os.DirFS("scripts"), ".", "Smoke.AUTO")
//	// finds "smoke.auto", "SMOKE.AUTO", ...
func FindFileCaseInsensitive(fsys fs.FS, dir, filename string) (string, error) {
	if dir == "" {
		dir = "."
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var folded string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Name() == filename {
			return path.Join(dir, entry.Name()), nil
		}
		// 大文字小文字を無視して比較（最初の一致を採用）
		if folded == "" && strings.EqualFold(entry.Name(), filename) {
			folded = path.Join(dir, entry.Name())
		}
	}
	if folded != "" {
		return folded, nil
	}

	return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
}

// Resolve は name（"dir/file" 形式も可）を大文字小文字を無視して解決し、実際のパスを返す
func Resolve(fsys fs.FS, name string) (string, error) {
	name = strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
	if _, err := fs.Stat(fsys, name); err == nil {
		return name, nil
	}
	return FindFileCaseInsensitive(fsys, path.Dir(name), path.Base(name))
}

// ReadFile は大文字小文字を無視してファイルを読み込む
func ReadFile(fsys fs.FS, name string) (data []byte, actual string, err error) {
	actual, err = Resolve(fsys, name)
	if err != nil {
		return nil, "", err
	}
	data, err = fs.ReadFile(fsys, actual)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", actual, err)
	}
	return data, actual, nil
}

// FindBySuffix は dir 直下で拡張子 suffix（大文字小文字を無視）を持つファイルをソート済みで返す
func FindBySuffix(fsys fs.FS, dir, suffix string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(path.Ext(entry.Name()), suffix) {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
