package apl

import (
	"fmt"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// LoadRotation loads a rotation file from baseDir, resolving imports.
func LoadRotation(baseDir, relPath string) (*File, error) {
	return LoadRotationFS(os.DirFS(baseDir), relPath)
}

// LoadRotationFS loads a rotation file from fsys, resolving imports
// depth-first. Import paths are relative to the root of fsys.
func LoadRotationFS(fsys fs.FS, relPath string) (*File, error) {
	seen := map[string]bool{}
	return loadRecursive(fsys, relPath, seen)
}

// ParseRotation decodes a single rotation document. Imports are not allowed.
func ParseRotation(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rotation: %w", err)
	}
	if len(file.Imports) > 0 {
		return nil, fmt.Errorf("rotation %q: imports require a file system", file.Name)
	}
	return &file, nil
}

func loadRecursive(fsys fs.FS, relPath string, seen map[string]bool) (*File, error) {
	normalized := path.Clean(relPath)
	if seen[normalized] {
		return nil, fmt.Errorf("rotation import cycle detected at %s", normalized)
	}
	seen[normalized] = true

	data, err := fs.ReadFile(fsys, normalized)
	if err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}

	var merged []ActionDefinition
	for _, imp := range file.Imports {
		child, err := loadRecursive(fsys, imp, seen)
		if err != nil {
			return nil, err
		}
		merged = append(merged, child.Rotation...)
		if file.Variables == nil && len(child.Variables) > 0 {
			file.Variables = map[string]any{}
		}
		for k, v := range child.Variables {
			if _, own := file.Variables[k]; !own {
				file.Variables[k] = v
			}
		}
	}
	file.Rotation = append(merged, file.Rotation...)

	seen[normalized] = false
	return &file, nil
}
