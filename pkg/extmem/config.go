package extmem

import (
	"flag"

	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
)

// MaxLength is the hard ceiling on a single attachment's byte length,
// below the address-space limit. The configured ceiling may be lower,
// never higher.
const MaxLength = 0x3fffffff

// Config holds the manager's tunables.
type Config struct {
	// MaxLength caps a single attachment's byte length. Zero means
	// MaxLength.
	MaxLength flagext.Bytes `yaml:"max_length"`
	// Strict escalates caller precondition violations (double attach)
	// from errors to panics.
	Strict bool `yaml:"strict"`
}

// RegisterFlags registers the config flags with defaults.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.MaxLength = MaxLength
	f.Var(&cfg.MaxLength, "extmem.max-length", "Ceiling on a single attachment's byte length.")
	f.BoolVar(&cfg.Strict, "extmem.strict", false, "Panic on caller precondition violations instead of returning an error.")
}

// Validate rejects a ceiling above the platform limit.
func (cfg *Config) Validate() error {
	if uint64(cfg.MaxLength) > MaxLength {
		return errors.Errorf("extmem.max-length %d exceeds the platform ceiling %d", uint64(cfg.MaxLength), int64(MaxLength))
	}
	return nil
}
