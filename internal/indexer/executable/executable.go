package executable

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ExecutableInfo contains information about an executable file
type ExecutableInfo struct {
	Name string // Executable name
	Path string // Full path to executable
}

// ScanPaths sends the executables found directly in each of paths. A name is
// reported once, from the first path that has it, the same way PATH lookup works.
func ScanPaths(ctx context.Context, paths []string, resultChan chan<- *ExecutableInfo) error {
	defer close(resultChan)

	seen := make(map[string]struct{})
	for _, path := range paths {
		if err := scanPath(ctx, path, seen, resultChan); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Continue scanning other paths even if one fails
			continue
		}
	}
	return nil
}

func scanPath(ctx context.Context, dir string, seen map[string]struct{}, resultChan chan<- *ExecutableInfo) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, d := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") || d.IsDir() {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !isExecutable(info) {
			continue
		}
		seen[name] = struct{}{}

		select {
		case resultChan <- &ExecutableInfo{Name: name, Path: path}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func isExecutable(info fs.FileInfo) bool {
	// Check if file has execute permission for user, group, or others
	return info.Mode()&0111 != 0
}
