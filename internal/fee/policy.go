package fee

import (
	"fmt"
	"strings"
)

// ManagementBase selects what the management fee percentage is applied to.
type ManagementBase string

const (
	// ManagementNet applies the management fee to the budget left after the safety net.
	ManagementNet ManagementBase = "net"
	// ManagementGross applies the management fee to the whole budget.
	ManagementGross ManagementBase = "gross"
)

// Denominator selects the total weight that the fee pool is divided by.
type Denominator string

const (
	// DenominatorRealized divides by the sum of recorded task weights.
	DenominatorRealized Denominator = "realized"
	// DenominatorEstimated divides by the project's planning baseline.
	DenominatorEstimated Denominator = "estimated"
)

// Policy is the explicit rule set for a single distribution.
type Policy struct {
	ManagementBase ManagementBase `json:"managementBase" yaml:"management_base" enum:"net,gross"`
	Denominator    Denominator    `json:"denominator" yaml:"denominator" enum:"realized,estimated"`
}

// DefaultPolicy is net management base with the realized denominator.
func DefaultPolicy() Policy {
	return Policy{ManagementBase: ManagementNet, Denominator: DenominatorRealized}
}

// Validate rejects unknown policy values.
func (p Policy) Validate() error {
	switch p.ManagementBase {
	case ManagementNet, ManagementGross:
	default:
		return fmt.Errorf("invalid management base %q (want net or gross)", p.ManagementBase)
	}
	switch p.Denominator {
	case DenominatorRealized, DenominatorEstimated:
	default:
		return fmt.Errorf("invalid denominator %q (want realized or estimated)", p.Denominator)
	}
	return nil
}

// Override returns p with any non-empty argument replacing the matching field.
func (p Policy) Override(managementBase, denominator string) (Policy, error) {
	if v := strings.TrimSpace(strings.ToLower(managementBase)); v != "" {
		p.ManagementBase = ManagementBase(v)
	}
	if v := strings.TrimSpace(strings.ToLower(denominator)); v != "" {
		p.Denominator = Denominator(v)
	}
	return p, p.Validate()
}
