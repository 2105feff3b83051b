package routes

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

/* Loader reads a routes manifest (routes.yaml)
 * Provides in-memory lookup by name
 */

var ErrRouteNotFound = errors.New("route not found")

// Manifest represents the structure of routes.yaml
type Manifest struct {
	Routes []Route `yaml:"routes"`
}

// Loader holds the loaded routes
type Loader struct {
	fs     afero.Fs
	routes map[string]*Route
}

// NewLoader creates a loader reading from the OS filesystem
func NewLoader() *Loader {
	return NewLoaderWithFs(afero.NewOsFs())
}

func NewLoaderWithFs(fs afero.Fs) *Loader {
	return &Loader{
		fs:     fs,
		routes: make(map[string]*Route),
	}
}

// Load reads, parses and validates the manifest at filePath
func (l *Loader) Load(filePath string) error {
	data, err := afero.ReadFile(l.fs, filePath)
	if err != nil {
		return fmt.Errorf("reading routes file: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parsing routes YAML: %w", err)
	}

	loaded := make(map[string]*Route, len(manifest.Routes))
	for i := range manifest.Routes {
		route := manifest.Routes[i]
		if err := route.Validate(); err != nil {
			return fmt.Errorf("validating route: %w", err)
		}
		if _, dup := loaded[route.Name]; dup {
			return fmt.Errorf("validating route: duplicate name %s", route.Name)
		}
		loaded[route.Name] = &route
	}

	l.routes = loaded
	return nil
}

// Get retrieves a route by name
func (l *Loader) Get(name string) (*Route, error) {
	route, exists := l.routes[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}
	return route, nil
}

// List returns all loaded routes sorted by name
func (l *Loader) List() []*Route {
	routes := make([]*Route, 0, len(l.routes))
	for _, route := range l.routes {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Name < routes[j].Name })
	return routes
}

// Exists checks if a route name exists
func (l *Loader) Exists(name string) bool {
	_, exists := l.routes[name]
	return exists
}
