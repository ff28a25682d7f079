// ABOUTME: Plan definitions: intake modules, risk/sanctions defaults and price
// ABOUTME: Module and Level enumerations are fixed; the backend rejects anything else

package model

import (
	"encoding/json"
	"fmt"
)

// Module is an intake module a plan can bundle
type Module string

const (
	ModuleIDVerification Module = "id_verification"
	ModuleLiveness       Module = "liveness"
	ModuleProofOfAddress Module = "proof_of_address"
	ModuleFraud          Module = "fraud"
	ModuleAML            Module = "aml"
	ModuleSanctions      Module = "sanctions"
	ModuleBiometric      Module = "biometric"
)

// Modules lists every valid intake module in display order.
var Modules = []Module{
	ModuleIDVerification,
	ModuleLiveness,
	ModuleProofOfAddress,
	ModuleFraud,
	ModuleAML,
	ModuleSanctions,
	ModuleBiometric,
}

// Valid reports whether m is one of Modules
func (m Module) Valid() bool {
	for _, known := range Modules {
		if m == known {
			return true
		}
	}
	return false
}

// Level is an ordinal risk or sanctions strictness: 0 low, 1 medium, 2 high
type Level int

const (
	LevelLow    Level = 0
	LevelMedium Level = 1
	LevelHigh   Level = 2
)

// Valid reports whether l is in {0,1,2}
func (l Level) Valid() bool {
	return l >= LevelLow && l <= LevelHigh
}

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Plan is a named bundle of modules, risk/sanctions defaults and a price
type Plan struct {
	ID                   string   `json:"id,omitempty"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Modules              []Module `json:"modules"`
	RiskLevel            Level    `json:"riskLevel"`
	SanctionsLevel       Level    `json:"sanctionsLevel"`
	PricePerVerification float64  `json:"pricePerVerification"`
}

// UnmarshalJSON takes the id from _id, falling back to id, so plan ids match
// the refs in Client.SubscriptionPlans
func (p *Plan) UnmarshalJSON(data []byte) error {
	type plain Plan
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Plan(raw.plain)
	if raw.MongoID != "" {
		p.ID = raw.MongoID
	}
	return nil
}
