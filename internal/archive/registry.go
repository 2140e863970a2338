package archive

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed archives.yaml
var defaultManifest []byte

// Info describes one archive in the registry manifest.
type Info struct {
	Tag         Kind   `yaml:"tag"`
	Name        string `yaml:"name"`
	Nationality string `yaml:"nationality"`
	Description string `yaml:"description,omitempty"`
}

type manifest struct {
	Archives []Info `yaml:"archives"`
}

// Registry maps archive kinds to their metadata, most importantly the
// nationality code attached to every voyage from that archive.
type Registry struct {
	infos map[Kind]Info
	order []Kind
}

// Load reads a registry manifest in YAML form.
func Load(r io.Reader) (*Registry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Archives) == 0 {
		return nil, fmt.Errorf("manifest lists no archives")
	}

	reg := &Registry{infos: make(map[Kind]Info, len(m.Archives))}
	for _, info := range m.Archives {
		if _, err := ParseKind(string(info.Tag)); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		if _, dup := reg.infos[info.Tag]; dup {
			return nil, fmt.Errorf("manifest repeats archive %q", info.Tag)
		}
		reg.infos[info.Tag] = info
		reg.order = append(reg.order, info.Tag)
	}
	return reg, nil
}

// LoadFile reads a registry manifest from disk.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// DefaultRegistry returns the registry built from the embedded
// manifest. The embedded manifest is part of the build, so a parse
// failure here is a programming error.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(bytes.NewReader(defaultManifest))
		if err != nil {
			panic(fmt.Sprintf("embedded archive manifest: %v", err))
		}
		defaultReg = reg
	})
	return defaultReg
}

// Info returns the metadata for an archive kind.
func (r *Registry) Info(k Kind) (Info, bool) {
	info, ok := r.infos[k]
	return info, ok
}

// Nationality returns the nationality code attached to records of the
// given archive, or "" when the archive has none (CLIWOC tracks carry
// their own) or the kind is unknown.
func (r *Registry) Nationality(k Kind) string {
	return r.infos[k].Nationality
}

// Kinds lists the registered archives in manifest order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}
