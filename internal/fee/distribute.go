package fee

import "sort"

// Defaults applied when a project leaves the corresponding field unset.
const (
	DefaultDPPercent            Percent = 50
	DefaultCompletionPercent    Percent = 40
	DefaultBufferPercent        Percent = 10
	DefaultEstimatedTotalWeight         = 327.5
)

// Terms is the financial configuration of a project.
type Terms struct {
	TotalBudget          Money
	SafetyNetPercent     Percent
	ManagementFeePercent Percent
	DeploymentFee        Money
	DPPercent            *Percent
	CompletionPercent    *Percent
	BufferPercent        *Percent
	EstimatedTotalWeight *float64
}

// Tranches is the down-payment / completion / buffer split of a base fee.
type Tranches struct {
	DP         Percent `json:"dpPercent"`
	Completion Percent `json:"completionPercent"`
	Buffer     Percent `json:"bufferPercent"`
}

// Tranches resolves the tranche split, falling back to 50/40/10.
func (t Terms) Tranches() Tranches {
	return Tranches{
		DP:         percentOr(t.DPPercent, DefaultDPPercent),
		Completion: percentOr(t.CompletionPercent, DefaultCompletionPercent),
		Buffer:     percentOr(t.BufferPercent, DefaultBufferPercent),
	}
}

// Estimate resolves the planning baseline, falling back to 327.5 when unset or not positive.
func (t Terms) Estimate() float64 {
	if t.EstimatedTotalWeight == nil || *t.EstimatedTotalWeight <= 0 || finite(*t.EstimatedTotalWeight) == 0 {
		return DefaultEstimatedTotalWeight
	}
	return *t.EstimatedTotalWeight
}

func percentOr(p *Percent, def Percent) Percent {
	if p == nil || !p.Valid() {
		return def
	}
	return *p
}

// Contribution is the weight of one task attributed to a developer.
// An empty DeveloperID marks unassigned work.
type Contribution struct {
	DeveloperID   string
	DeveloperName string
	Weight        float64
}

// Breakdown is the budget split ahead of per-developer allocation.
type Breakdown struct {
	TotalBudget         Money `json:"totalBudget"`
	SafetyNetAmount     Money `json:"safetyNetAmount"`
	ManagementFeeAmount Money `json:"managementFeeAmount"`
	DeploymentFeeAmount Money `json:"deploymentFeeAmount"`
	TeamFeePool         Money `json:"teamFeePool"`
	FeePerPoint         Money `json:"feePerPoint"`
}

// Allocation is one developer's share of the fee pool.
type Allocation struct {
	DeveloperID      string  `json:"developerId"`
	DeveloperName    string  `json:"developerName"`
	TotalWeight      float64 `json:"totalWeight"`
	TaskCount        int     `json:"taskCount"`
	Percentage       Percent `json:"percentage"`
	BaseFee          Money   `json:"baseFee"`
	DPAmount         Money   `json:"dpAmount"`
	CompletionAmount Money   `json:"completionAmount"`
	BufferAmount     Money   `json:"bufferAmount"`
}

// Unassigned reports work that has no developer and therefore receives no fee.
type Unassigned struct {
	TotalWeight float64 `json:"totalWeight"`
	TaskCount   int     `json:"taskCount"`
	Percentage  Percent `json:"percentage"`
}

// Distribution is the full fee report for a project.
type Distribution struct {
	Policy               Policy       `json:"policy"`
	Tranches             Tranches     `json:"tranches"`
	Breakdown            Breakdown    `json:"breakdown"`
	Developers           []Allocation `json:"developers"`
	Unassigned           Unassigned   `json:"unassigned"`
	TotalWeight          float64      `json:"totalWeight"`
	EstimatedTotalWeight float64      `json:"estimatedTotalWeight"`
	AllocatedTotal       Money        `json:"allocatedTotal"`
	UnallocatedAmount    Money        `json:"unallocatedAmount"`

	feePerPoint Money
}

// FeeFor prices weight at the unrounded fee per point, so FeeFor of a
// developer's full weight equals their BaseFee.
func (d Distribution) FeeFor(weight float64) Money {
	return RoundMoney(Money(finite(weight) * float64(d.feePerPoint)))
}

// BudgetBreakdown deducts the safety net, management fee and deployment fee from
// the budget. Results are unrounded. The pool never goes below zero when the
// deductions exceed the budget.
func BudgetBreakdown(t Terms, base ManagementBase) (safetyNet, management, deployment, pool Money) {
	safetyNet = t.SafetyNetPercent.Of(t.TotalBudget)
	switch base {
	case ManagementGross:
		management = t.ManagementFeePercent.Of(t.TotalBudget)
	default:
		management = t.ManagementFeePercent.Of(t.TotalBudget - safetyNet)
	}
	deployment = t.DeploymentFee
	pool = max(t.TotalBudget-safetyNet-management-deployment, 0)
	return safetyNet, management, deployment, pool
}

type bucket struct {
	id, name string
	weight   float64
	tasks    int
}

// Distribute apportions the project's fee pool among developers in proportion
// to their aggregated weight. It is pure: the same inputs always produce the
// same report.
func Distribute(t Terms, p Policy, contributions []Contribution) Distribution {
	safetyNet, management, deployment, pool := BudgetBreakdown(t, p.ManagementBase)

	var (
		order      []*bucket
		byID       = map[string]*bucket{}
		unassigned bucket
		total      float64
	)
	for _, c := range contributions {
		w := finite(c.Weight)
		total += w
		if c.DeveloperID == "" {
			unassigned.weight += w
			unassigned.tasks++
			continue
		}
		b, ok := byID[c.DeveloperID]
		if !ok {
			b = &bucket{id: c.DeveloperID, name: c.DeveloperName}
			byID[c.DeveloperID] = b
			order = append(order, b)
		}
		b.weight += w
		b.tasks++
	}

	estimate := t.Estimate()
	denominator := total
	if p.Denominator == DenominatorEstimated {
		denominator = estimate
	}
	var feePerPoint Money
	if denominator > 0 {
		feePerPoint = Money(finite(float64(pool) / denominator))
	}
	share := func(w float64) Percent {
		if denominator <= 0 {
			return 0
		}
		return RoundPercent(Percent(w / denominator * 100))
	}

	tranches := t.Tranches()
	allocations := make([]Allocation, 0, len(order))
	var allocated Money
	for _, b := range order {
		base := Money(b.weight * float64(feePerPoint))
		allocated += base
		allocations = append(allocations, Allocation{
			DeveloperID:      b.id,
			DeveloperName:    b.name,
			TotalWeight:      b.weight,
			TaskCount:        b.tasks,
			Percentage:       share(b.weight),
			BaseFee:          RoundMoney(base),
			DPAmount:         RoundMoney(tranches.DP.Of(base)),
			CompletionAmount: RoundMoney(tranches.Completion.Of(base)),
			BufferAmount:     RoundMoney(tranches.Buffer.Of(base)),
		})
	}
	sort.SliceStable(allocations, func(i, j int) bool {
		return allocations[i].TotalWeight > allocations[j].TotalWeight
	})

	return Distribution{
		Policy:   p,
		Tranches: tranches,
		Breakdown: Breakdown{
			TotalBudget:         t.TotalBudget,
			SafetyNetAmount:     RoundMoney(safetyNet),
			ManagementFeeAmount: RoundMoney(management),
			DeploymentFeeAmount: RoundMoney(deployment),
			TeamFeePool:         RoundMoney(pool),
			FeePerPoint:         RoundRate(feePerPoint),
		},
		Developers: allocations,
		Unassigned: Unassigned{
			TotalWeight: unassigned.weight,
			TaskCount:   unassigned.tasks,
			Percentage:  share(unassigned.weight),
		},
		TotalWeight:          total,
		EstimatedTotalWeight: estimate,
		AllocatedTotal:       RoundMoney(allocated),
		UnallocatedAmount:    RoundMoney(pool - allocated),
		feePerPoint:          feePerPoint,
	}
}
