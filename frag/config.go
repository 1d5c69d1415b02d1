package frag

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables of an editing session.
type Config struct {

	// MaxWeldMappings caps the number of AP pairings enumerated when welding children onto a parent.
	MaxWeldMappings int `yaml:"max_weld_mappings" validate:"gte=1,lte=100000"`

	// SymmetricEdits propagates catalog-driven edits to all symmetric sites.
	SymmetricEdits bool `yaml:"symmetric_edits"`

	// UseCapping enables capping of free APs after edits that expose them.
	UseCapping bool `yaml:"use_capping"`

	// CatalogPath is the badger directory of the building-block catalog; empty means in-memory.
	CatalogPath string `yaml:"catalog_path"`

	// RulesPath names a YAML RuleTable.
	RulesPath string `yaml:"rules_path"`

	Verbosity int `yaml:"verbosity" validate:"gte=0,lte=9"`
}

var configValidate = validator.New()

func DefaultConfig() Config {
	return Config{
		MaxWeldMappings: 500,
		SymmetricEdits:  true,
		UseCapping:      true,
	}
}

// ParseConfig overlays the given YAML onto DefaultConfig() and validates the result.
func ParseConfig(buf []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return Config{}, errors.Wrap(ErrBadConfig, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(pathname string) (Config, error) {
	buf, err := os.ReadFile(pathname)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(buf)
}

func (cfg *Config) Validate() error {
	if err := configValidate.Struct(cfg); err != nil {
		return errors.Wrap(ErrBadConfig, err.Error())
	}
	return nil
}
