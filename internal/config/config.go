// Package config loads the network-configuration document and resolves the
// active service endpoints for a named network.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mediafabric/fabric-client/internal/errs"
)

// ServiceClass identifies a class of backing service endpoints.
type ServiceClass string

const (
	ServiceFabric ServiceClass = "fabric"
	ServiceAuth   ServiceClass = "auth"
	ServiceEth    ServiceClass = "eth"
)

// ServiceOverrides holds per-network device-level endpoint overrides. A
// non-empty override takes precedence over the configured endpoint list for
// its service class.
type ServiceOverrides struct {
	FabricURL      string `yaml:"fabric_url" json:"fabric_url"`
	EthURL         string `yaml:"eth_url" json:"eth_url"`
	AuthServiceURL string `yaml:"as_url" json:"as_url"`
}

// NetworkConfig describes one named network: its service endpoints and the
// static object identifiers the client needs. Immutable after load; switching
// networks replaces the whole active config.
type NetworkConfig struct {
	Name            string            `yaml:"-" json:"-"`
	ConfigURL       string            `yaml:"config_url" json:"config_url"`
	FabricURLs      []string          `yaml:"fabric_urls" json:"fabric_urls"`
	AuthServiceURLs []string          `yaml:"as_urls" json:"as_urls"`
	EthServiceURLs  []string          `yaml:"eth_urls" json:"eth_urls"`
	MainObjectID    string            `yaml:"main_obj_id" json:"main_obj_id"`
	ContentSpaceID  string            `yaml:"content_space_id" json:"content_space_id"`
	StateStoreURLs  []string          `yaml:"state_store_urls" json:"state_store_urls"`
	BadgerAddress   string            `yaml:"badger_address" json:"badger_address"`
	Overrides       *ServiceOverrides `yaml:"overrides" json:"overrides"`
}

// AppSettings holds application-wide settings from the document.
type AppSettings struct {
	Mode string `yaml:"mode" json:"mode"`
}

// Auth0Settings holds the OAuth client settings from the document.
type Auth0Settings struct {
	Domain   string `yaml:"domain" json:"domain"`
	ClientID string `yaml:"client_id" json:"client_id"`
}

// Document is the full network-configuration document, loaded once from a
// bundled resource or a previously-fetched copy.
type Document struct {
	Networks map[string]*NetworkConfig `yaml:"network" json:"network"`
	App      AppSettings               `yaml:"app" json:"app"`
	Auth0    Auth0Settings             `yaml:"auth0" json:"auth0"`
}

// Resolver resolves named networks out of a parsed Document.
type Resolver struct {
	doc *Document
}

// Load reads and parses a configuration document from disk. The document may
// be YAML or JSON (JSON parses as a YAML subset).
func Load(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network config: %w", err)
	}
	return Parse(data)
}

// Parse parses a configuration document.
func Parse(data []byte) (*Resolver, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errs.NewConfigError("parse network config: %v", err)
	}
	if len(doc.Networks) == 0 {
		return nil, errs.NewConfigError("network config declares no networks")
	}
	for name, nc := range doc.Networks {
		if nc == nil {
			return nil, errs.NewConfigError("network %q: empty definition", name)
		}
		nc.Name = name
	}
	return &Resolver{doc: &doc}, nil
}

// Document returns the parsed document.
func (r *Resolver) Document() *Document { return r.doc }

// Resolve returns the configuration for the named network. An unknown name
// is a ConfigError.
func (r *Resolver) Resolve(name string) (*NetworkConfig, error) {
	nc, ok := r.doc.Networks[name]
	if !ok {
		return nil, errs.NewConfigError("unknown network %q", name)
	}
	return nc, nil
}

// Endpoint resolves the active endpoint for a service class: a non-empty
// device override wins outright, otherwise the selector picks from the
// configured list. An empty outcome is a ConfigError.
func (nc *NetworkConfig) Endpoint(class ServiceClass, sel EndpointSelector) (string, error) {
	if ov := nc.override(class); ov != "" {
		return ov, nil
	}
	candidates := nc.endpoints(class)
	if len(candidates) == 0 {
		return "", errs.NewConfigError("network %q: no %s endpoints configured", nc.Name, class)
	}
	if sel == nil {
		sel = FirstEndpoint{}
	}
	return sel.Select(candidates)
}

func (nc *NetworkConfig) override(class ServiceClass) string {
	if nc.Overrides == nil {
		return ""
	}
	switch class {
	case ServiceFabric:
		return nc.Overrides.FabricURL
	case ServiceAuth:
		return nc.Overrides.AuthServiceURL
	case ServiceEth:
		return nc.Overrides.EthURL
	}
	return ""
}

func (nc *NetworkConfig) endpoints(class ServiceClass) []string {
	switch class {
	case ServiceFabric:
		return nc.FabricURLs
	case ServiceAuth:
		return nc.AuthServiceURLs
	case ServiceEth:
		return nc.EthServiceURLs
	}
	return nil
}
