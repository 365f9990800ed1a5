package plugin

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/groundwork/internal/config"
)

// APIVersion is the major version of the plugin contract.
const APIVersion = 1

// Manifest declares which published classes an installation provides.
//
//	distributions:
//	  - key: groundwork-info
//	    version: 1.0.0
//	    api_version: 1.x
//	    entries:
//	      - name: gw_plugins_info
//	        symbol: PluginsInfo
type Manifest struct {
	Distributions []ManifestDistribution `yaml:"distributions" validate:"dive"`
}

// ManifestDistribution is one installed package and its entries.
type ManifestDistribution struct {
	Distribution `yaml:",inline"`
	Group        string          `yaml:"group"`
	APIVersion   string          `yaml:"api_version" validate:"required,api_version"`
	Entries      []ManifestEntry `yaml:"entries" validate:"required,min=1,dive"`
}

// ManifestEntry names a class published in the catalog.
type ManifestEntry struct {
	Name   string `yaml:"name" validate:"required"`
	Symbol string `yaml:"symbol" validate:"required"`
}

// ManifestSource is a Source backed by a manifest file. Entry symbols are
// resolved against a catalog when loaded.
type ManifestSource struct {
	Path    string
	Catalog *Catalog
}

// NewManifestSource creates a source reading path and resolving symbols in catalog.
func NewManifestSource(path string, catalog *Catalog) *ManifestSource {
	return &ManifestSource{Path: path, Catalog: catalog}
}

// Entries implements Source.
func (s *ManifestSource) Entries(group string) ([]Entry, error) {
	manifest, err := LoadManifest(s.Path)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, dist := range manifest.Distributions {
		distGroup := dist.Group
		if distGroup == "" {
			distGroup = EntryPointGroup
		}
		if distGroup != group {
			continue
		}

		distribution := dist.Distribution
		apiVersion := dist.APIVersion
		for _, item := range dist.Entries {
			symbol := item.Symbol
			entries = append(entries, Entry{
				Name:         item.Name,
				Distribution: &distribution,
				Loader: LoaderFunc(func() (any, error) {
					if err := checkAPIVersion(apiVersion); err != nil {
						return nil, fmt.Errorf("distribution %s: %w", distribution.Key, err)
					}
					return s.resolve(group, symbol)
				}),
			})
		}
	}
	return entries, nil
}

func (s *ManifestSource) resolve(group, symbol string) (any, error) {
	if s.Catalog == nil {
		return nil, fmt.Errorf("symbol '%s' can not be resolved without a catalog", symbol)
	}
	entry, ok := s.Catalog.Lookup(group, symbol)
	if !ok {
		return nil, fmt.Errorf("symbol '%s' is not published", symbol)
	}
	return entry.Load()
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse plugin manifest %s: %w", path, err)
	}

	if err := config.GetValidator().Struct(&manifest); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			field := validationErrs[0]
			return nil, fmt.Errorf("invalid plugin manifest %s: %s failed on %s", path, field.Namespace(), field.Tag())
		}
		return nil, fmt.Errorf("invalid plugin manifest %s: %w", path, err)
	}
	return &manifest, nil
}

// checkAPIVersion accepts constraints of the form "N.x" matching APIVersion.
func checkAPIVersion(constraint string) error {
	major, ok := strings.CutSuffix(strings.TrimSpace(constraint), ".x")
	if !ok {
		return fmt.Errorf("invalid api version constraint '%s'", constraint)
	}
	value, err := strconv.Atoi(major)
	if err != nil || value < 0 {
		return fmt.Errorf("invalid api version constraint '%s'", constraint)
	}
	if value != APIVersion {
		return fmt.Errorf("requires plugin api %d.x, groundwork provides %d.x", value, APIVersion)
	}
	return nil
}
