package registry

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileRegistry reads records from a YAML document. The file is re-read on every call
// so edits are picked up by the next refresh.
type FileRegistry struct {
	path string
}

// fileDocument is the on-disk layout
type fileDocument struct {
	Services     []ServiceRecord `yaml:"services"`
	ProviderData `yaml:",inline"`
}

// NewFileRegistry creates a registry reading path
func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{path: path}
}

// Path returns the file backing the registry
func (r *FileRegistry) Path() string {
	return r.path
}

// Services returns the services listed in the file
func (r *FileRegistry) Services(ctx context.Context) ([]ServiceRecord, error) {
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Services, nil
}

// Providers returns the providers and connections listed in the file
func (r *FileRegistry) Providers(ctx context.Context) (*ProviderData, error) {
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	data := doc.ProviderData
	if data.Connections == nil {
		data.Connections = map[string][]string{}
	}
	return &data, nil
}

func (r *FileRegistry) load(ctx context.Context) (*fileDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry file %s: %w", r.path, err)
	}
	return &doc, nil
}
