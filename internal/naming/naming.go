// Package naming maps controller source paths to controller names and
// controller actions to the view templates that render them.
package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-openapi/inflect"
)

const (
	// ControllerSuffix is appended to every controller's base name.
	ControllerSuffix = "Controller"
	// NamespaceSeparator joins namespace segments in a controller name.
	NamespaceSeparator = "::"

	sourceRoot = "controllers/"
	fileSuffix = "_controller"
)

// ViewRoots are probed in order, relative to the project root.
var ViewRoots = []string{"app/views", "spec/app/views"}

// ViewExtensions are the template engines probed for each view root, in order.
var ViewExtensions = []string{"erb", "haml", "slim", "jbuilder"}

// ControllerName derives the logical controller name from a source path:
// "app/controllers/cli_matrix/matrix_controller.rb" -> "CliMatrix::MatrixController".
func ControllerName(p string) string {
	rel := filepath.ToSlash(p)
	if i := strings.LastIndex(rel, "/"+sourceRoot); i >= 0 {
		rel = rel[i+len(sourceRoot)+1:]
	} else {
		rel = strings.TrimPrefix(rel, sourceRoot)
	}
	rel = strings.TrimSuffix(rel, path.Ext(rel))

	parts := strings.Split(rel, "/")
	segments := make([]string, 0, len(parts))
	for _, ns := range parts[:len(parts)-1] {
		if ns == "" {
			continue
		}
		segments = append(segments, inflect.Camelize(ns))
	}
	base := strings.TrimSuffix(parts[len(parts)-1], fileSuffix)
	segments = append(segments, inflect.Camelize(base)+ControllerSuffix)
	return strings.Join(segments, NamespaceSeparator)
}

// ViewDir is the inverse of ControllerName for the view tree:
// "CliMatrix::MatrixController" -> "cli_matrix/matrix".
func ViewDir(controller string) string {
	name := strings.TrimSuffix(controller, ControllerSuffix)
	var dirs []string
	for _, seg := range strings.Split(name, NamespaceSeparator) {
		if seg == "" {
			continue
		}
		dirs = append(dirs, inflect.Underscore(seg))
	}
	return path.Join(dirs...)
}

// ViewCandidates returns the existing templates for controller#action under
// root, as root-relative slash paths ordered by view root then extension.
// No match is a valid result.
func ViewCandidates(root, controller, action string) ([]string, error) {
	dir := ViewDir(controller)
	var found []string
	seen := make(map[string]bool)
	for _, viewRoot := range ViewRoots {
		for _, ext := range ViewExtensions {
			rel := path.Join(viewRoot, dir, action+".html."+ext)
			if seen[rel] {
				continue
			}
			info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, fmt.Errorf("failed to stat view %s: %w", rel, err)
			}
			if info.IsDir() {
				continue
			}
			seen[rel] = true
			found = append(found, rel)
		}
	}
	return found, nil
}
