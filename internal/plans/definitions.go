// ABOUTME: Plan definition files in TOML for bulk create/update
// ABOUTME: Unknown keys are rejected so typos never silently drop a field

package plans

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/2389/verify-console/internal/model"
)

type definitionFile struct {
	Plans []definition `toml:"plan"`
}

type definition struct {
	ID                   string   `toml:"id"`
	Name                 string   `toml:"name"`
	Description          string   `toml:"description"`
	Modules              []string `toml:"modules"`
	RiskLevel            int      `toml:"risk_level"`
	SanctionsLevel       int      `toml:"sanctions_level"`
	PricePerVerification float64  `toml:"price_per_verification"`
}

// LoadDefinitions reads [[plan]] tables from a TOML file and validates each.
//
//	[[plan]]
//	name = "Standard KYC"
//	modules = ["id_verification", "liveness"]
//	risk_level = 1
//	price_per_verification = 1.25
func LoadDefinitions(path string) ([]model.Plan, error) {
	var file definitionFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("parsing plan definitions: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in plan definitions: %s", strings.Join(keys, ", "))
	}
	if len(file.Plans) == 0 {
		return nil, fmt.Errorf("no [[plan]] entries in %s", path)
	}

	out := make([]model.Plan, 0, len(file.Plans))
	for i, d := range file.Plans {
		p := model.Plan{
			ID:                   d.ID,
			Name:                 d.Name,
			Description:          d.Description,
			RiskLevel:            model.Level(d.RiskLevel),
			SanctionsLevel:       model.Level(d.SanctionsLevel),
			PricePerVerification: d.PricePerVerification,
		}
		for _, m := range d.Modules {
			p.Modules = append(p.Modules, model.Module(m))
		}
		if err := Validate(p); err != nil {
			return nil, fmt.Errorf("plan %d (%s): %w", i+1, d.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}
