package pipeline

import (
	"crypto/sha256"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type sourceKind int

const (
	sourceUnknown sourceKind = iota
	sourceSpec
	sourceMarkdown
)

// classifySource maps a file extension onto its ingestion path: JSON API
// manifests or markdown tutorials.
func classifySource(path string) sourceKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return sourceSpec
	case ".md", ".markdown":
		return sourceMarkdown
	}
	return sourceUnknown
}

// discoverSources walks a corpus tree and returns every ingestible file in
// sorted order. Hidden directories are skipped.
func discoverSources(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if classifySource(path) != sourceUnknown {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// hashFile returns the content hash and size of one source file.
func hashFile(path string) ([32]byte, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, 0, err
	}
	return sha256.Sum256(data), int64(len(data)), nil
}
