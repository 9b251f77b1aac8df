package duckdb

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "json", "excel", "httpfs")
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseParams decodes raw target params. Extension and setting names are
// interpolated into SQL, so they must be plain identifiers.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}

	for _, ext := range p.Extensions {
		if !identRe.MatchString(ext) {
			return nil, fmt.Errorf("invalid extension name %q", ext)
		}
	}
	for key := range p.Settings {
		if !identRe.MatchString(key) {
			return nil, fmt.Errorf("invalid setting name %q", key)
		}
	}
	return p, nil
}

// SettingKeys returns the setting names in a stable order.
func (p *Params) SettingKeys() []string {
	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
