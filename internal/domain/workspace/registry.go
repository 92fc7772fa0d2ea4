package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/junedali-patel/codemind1/backend/internal/shared/id"
	"github.com/junedali-patel/codemind1/backend/internal/shared/types"
	"github.com/junedali-patel/codemind1/backend/internal/shared/utils"
)

var (
	// ErrInvalid is returned for a malformed id or root path
	ErrInvalid = errors.New("invalid workspace")
	// ErrUnsupportedFormat is returned for workspace files that are neither YAML nor TOML
	ErrUnsupportedFormat = errors.New("unsupported workspace file format")
)

// File is the on-disk layout of a workspace list
type File struct {
	Workspaces []types.Workspace `yaml:"workspaces" toml:"workspaces"`
}

// Registry is an in-memory set of workspace sessions
type Registry struct {
	mu         sync.RWMutex
	workspaces map[string]types.Workspace
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		workspaces: make(map[string]types.Workspace),
	}
}

// Register binds id to rootPath, replacing any previous binding.
// An empty id is generated. rootPath must be an existing absolute directory.
func (r *Registry) Register(workspaceID, rootPath string) (types.Workspace, error) {
	if workspaceID == "" {
		workspaceID = id.NewWorkspaceID().String()
	}
	if err := utils.ValidateID(workspaceID, "id", true); err != nil {
		return types.Workspace{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := utils.ValidateString(rootPath, "rootPath", 1, utils.MaxPathLength, true); err != nil {
		return types.Workspace{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !filepath.IsAbs(rootPath) {
		return types.Workspace{}, fmt.Errorf("%w: rootPath %q must be absolute", ErrInvalid, rootPath)
	}

	info, err := os.Stat(rootPath)
	if err != nil {
		return types.Workspace{}, fmt.Errorf("%w: rootPath: %v", ErrInvalid, err)
	}
	if !info.IsDir() {
		return types.Workspace{}, fmt.Errorf("%w: rootPath %q is not a directory", ErrInvalid, rootPath)
	}

	ws := types.Workspace{ID: workspaceID, RootPath: filepath.Clean(rootPath)}

	r.mu.Lock()
	r.workspaces[ws.ID] = ws
	r.mu.Unlock()

	return ws, nil
}

// Lookup returns the workspace registered under id
func (r *Registry) Lookup(workspaceID string) (types.Workspace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.workspaces[workspaceID]
	return ws, ok
}

// List returns all workspaces sorted by id
func (r *Registry) List() []types.Workspace {
	r.mu.RLock()
	list := make([]types.Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		list = append(list, ws)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// LoadFile registers every workspace listed in a .yaml, .yml or .toml file.
// It stops at the first invalid entry and returns how many were registered.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read workspace file: %w", err)
	}

	file, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, ws := range file.Workspaces {
		if _, err := r.Register(ws.ID, ws.RootPath); err != nil {
			return i, fmt.Errorf("workspace %d in %s: %w", i, path, err)
		}
	}
	return len(file.Workspaces), nil
}

// Parse decodes a workspace file by extension
func Parse(ext string, data []byte) (File, error) {
	var file File
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return File{}, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return File{}, err
		}
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return file, nil
}
