package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// etcdHandlerName is the commissaire module name of the etcd store handler.
const etcdHandlerName = "commissaire.storage.etcd"

// StorageHandler is one commissaire.conf store handler definition.
// Only the etcd handler is understood; others are kept but unused.
type StorageHandler struct {
	Name               string   `yaml:"name"`
	ServerURL          string   `yaml:"server_url"`
	CertificatePath    string   `yaml:"certificate_path"`
	CertificateKeyPath string   `yaml:"certificate_key_path"`
	CertificateCAPath  string   `yaml:"certificate_ca_path"`
	Models             []string `yaml:"models"`
}

// StorageHandlers accepts a single object or a list of objects.
type StorageHandlers []StorageHandler

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *StorageHandlers) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		var one StorageHandler
		if err := value.Decode(&one); err != nil {
			return err
		}
		*h = StorageHandlers{one}
		return nil
	case yaml.SequenceNode:
		var many []StorageHandler
		if err := value.Decode(&many); err != nil {
			return err
		}
		*h = many
		return nil
	}
	return fmt.Errorf("storage-handlers must be an object or a list of objects (line %d)", value.Line)
}

// applyStorageHandlers maps a commissaire etcd handler onto the etcd
// backend settings that were not set explicitly.
func (c *Config) applyStorageHandlers() error {
	for i, h := range c.StorageHandlers {
		if strings.TrimSpace(h.Name) == "" {
			return fmt.Errorf("storage-handlers[%d]: missing \"name\"", i)
		}
		if h.Name != etcdHandlerName {
			continue
		}
		etcd := &c.Store.Etcd
		if len(etcd.Endpoints) == 0 && h.ServerURL != "" {
			etcd.Endpoints = splitList(h.ServerURL)
		}
		if etcd.CertFile == "" {
			etcd.CertFile = h.CertificatePath
		}
		if etcd.KeyFile == "" {
			etcd.KeyFile = h.CertificateKeyPath
		}
		if etcd.CAFile == "" {
			etcd.CAFile = h.CertificateCAPath
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
