package ingestion

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ContractBundle is the on-disk form of a contract catalog. Bundles let an
// operator revise field rules without a code deployment; the built-in
// catalog remains the default.
type ContractBundle struct {
	Version   string     `yaml:"version"`
	Contracts []Contract `yaml:"contracts"`
}

// LoadBundle reads a YAML contract bundle and compiles it into a registry.
// The bundle version must be valid semver so operators can reason about
// catalog revisions in exports and logs.
func LoadBundle(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read contract bundle: %w", err)
	}
	return ParseBundle(data)
}

// ParseBundle compiles a YAML contract bundle from memory.
func ParseBundle(data []byte) (*Registry, error) {
	var bundle ContractBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("ingestion: decode contract bundle: %w", err)
	}
	if bundle.Version == "" {
		return nil, fmt.Errorf("ingestion: contract bundle has no version")
	}
	if _, err := semver.NewVersion(bundle.Version); err != nil {
		return nil, fmt.Errorf("ingestion: contract bundle version %q is not semver: %w", bundle.Version, err)
	}
	if len(bundle.Contracts) == 0 {
		return nil, fmt.Errorf("ingestion: contract bundle defines no contracts")
	}
	return NewRegistry(bundle.Version, bundle.Contracts)
}
