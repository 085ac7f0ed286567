package fee

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pct(v Percent) *Percent { return &v }
func f64(v float64) *float64 { return &v }

func referenceTerms() Terms {
	return Terms{
		TotalBudget:          100000,
		SafetyNetPercent:     10,
		ManagementFeePercent: 10,
		DeploymentFee:        5000,
	}
}

func TestBudgetBreakdownVariants(t *testing.T) {
	terms := referenceTerms()

	sn, mgmt, dep, pool := BudgetBreakdown(terms, ManagementNet)
	assert.Equal(t, Money(10000), sn)
	assert.Equal(t, Money(9000), mgmt)
	assert.Equal(t, Money(5000), dep)
	assert.Equal(t, Money(76000), pool)

	_, mgmt, _, pool = BudgetBreakdown(terms, ManagementGross)
	assert.Equal(t, Money(10000), mgmt)
	assert.Equal(t, Money(75000), pool)
}

func TestDistributeEndToEndRealized(t *testing.T) {
	d := Distribute(referenceTerms(), DefaultPolicy(), []Contribution{
		{DeveloperID: "dev-b", DeveloperName: "Bea", Weight: 7},
		{DeveloperID: "dev-a", DeveloperName: "Ari", Weight: 21},
	})

	assert.Equal(t, Money(10000), d.Breakdown.SafetyNetAmount)
	assert.Equal(t, Money(9000), d.Breakdown.ManagementFeeAmount)
	assert.Equal(t, Money(5000), d.Breakdown.DeploymentFeeAmount)
	assert.Equal(t, Money(76000), d.Breakdown.TeamFeePool)
	assert.Equal(t, Money(2714.29), d.Breakdown.FeePerPoint)
	assert.Equal(t, 28.0, d.TotalWeight)

	require.Len(t, d.Developers, 2)
	top, low := d.Developers[0], d.Developers[1]
	assert.Equal(t, "dev-a", top.DeveloperID)
	assert.Equal(t, Money(57000), top.BaseFee)
	assert.Equal(t, Money(19000), low.BaseFee)
	assert.Equal(t, 3*low.BaseFee, top.BaseFee)
	assert.Equal(t, Percent(75), top.Percentage)
	assert.Equal(t, Percent(25), low.Percentage)

	assert.Equal(t, Money(28500), top.DPAmount)
	assert.Equal(t, Money(22800), top.CompletionAmount)
	assert.Equal(t, Money(5700), top.BufferAmount)
	assert.Equal(t, Money(76000), d.AllocatedTotal)
	assert.Equal(t, Money(0), d.UnallocatedAmount)
}

func TestDistributeEndToEndGross(t *testing.T) {
	d := Distribute(referenceTerms(), Policy{ManagementBase: ManagementGross, Denominator: DenominatorRealized}, []Contribution{
		{DeveloperID: "dev-a", Weight: 21},
		{DeveloperID: "dev-b", Weight: 7},
	})
	assert.Equal(t, Money(10000), d.Breakdown.ManagementFeeAmount)
	assert.Equal(t, Money(75000), d.Breakdown.TeamFeePool)
	assert.InDelta(t, 3*float64(d.Developers[1].BaseFee), float64(d.Developers[0].BaseFee), 1)
}

func TestDistributeEstimatedBaseline(t *testing.T) {
	terms := referenceTerms()
	d := Distribute(terms, Policy{ManagementBase: ManagementNet, Denominator: DenominatorEstimated}, []Contribution{
		{DeveloperID: "dev-a", Weight: 21},
		{DeveloperID: "dev-b", Weight: 7},
	})
	assert.Equal(t, DefaultEstimatedTotalWeight, d.EstimatedTotalWeight)
	assert.Equal(t, RoundRate(Money(76000/327.5)), d.Breakdown.FeePerPoint)
	// Realized weight is far below the baseline, so most of the pool stays unallocated.
	assert.Less(t, float64(d.AllocatedTotal), float64(d.Breakdown.TeamFeePool))
	assert.Equal(t, RoundMoney(Money(21*76000/327.5)), d.Developers[0].BaseFee)
	assert.Equal(t, RoundPercent(Percent(21/327.5*100)), d.Developers[0].Percentage)

	terms.EstimatedTotalWeight = f64(28)
	d = Distribute(terms, Policy{ManagementBase: ManagementNet, Denominator: DenominatorEstimated}, []Contribution{
		{DeveloperID: "dev-a", Weight: 21},
		{DeveloperID: "dev-b", Weight: 7},
	})
	assert.Equal(t, Money(57000), d.Developers[0].BaseFee)
}

func TestDistributeBaseFeesSumToPool(t *testing.T) {
	terms := Terms{TotalBudget: 123457, SafetyNetPercent: 7.5, ManagementFeePercent: 12, DeploymentFee: 3210}
	contribs := []Contribution{
		{DeveloperID: "a", Weight: 21},
		{DeveloperID: "b", Weight: 13.5},
		{DeveloperID: "c", Weight: 7},
		{DeveloperID: "a", Weight: 9.5},
		{DeveloperID: "d", Weight: 35},
	}
	d := Distribute(terms, DefaultPolicy(), contribs)
	var sum float64
	for _, a := range d.Developers {
		sum += float64(a.BaseFee)
		parts := a.DPAmount + a.CompletionAmount + a.BufferAmount
		assert.InDelta(t, float64(a.BaseFee), float64(parts), 3, "tranches of %s", a.DeveloperID)
	}
	assert.InDelta(t, float64(d.Breakdown.TeamFeePool), sum, float64(len(d.Developers)))
}

func TestDistributeUnassignedExcluded(t *testing.T) {
	d := Distribute(referenceTerms(), DefaultPolicy(), []Contribution{
		{DeveloperID: "dev-a", DeveloperName: "Ari", Weight: 21},
		{Weight: 7},
		{Weight: 7},
	})
	assert.Equal(t, 35.0, d.TotalWeight)
	require.Len(t, d.Developers, 1)
	assert.Equal(t, 14.0, d.Unassigned.TotalWeight)
	assert.Equal(t, 2, d.Unassigned.TaskCount)
	assert.Equal(t, Percent(40), d.Unassigned.Percentage)
	assert.Equal(t, Money(45600), d.Developers[0].BaseFee)
	assert.Equal(t, Money(30400), d.UnallocatedAmount)
}

func TestDistributeSortStableOnTies(t *testing.T) {
	d := Distribute(referenceTerms(), DefaultPolicy(), []Contribution{
		{DeveloperID: "first", Weight: 7},
		{DeveloperID: "second", Weight: 7},
		{DeveloperID: "heavy", Weight: 14},
		{DeveloperID: "third", Weight: 7},
	})
	var ids []string
	for _, a := range d.Developers {
		ids = append(ids, a.DeveloperID)
	}
	assert.Equal(t, []string{"heavy", "first", "second", "third"}, ids)
}

func TestDistributeIdempotent(t *testing.T) {
	contribs := []Contribution{{DeveloperID: "a", Weight: 12.5}, {DeveloperID: "b", Weight: 12.5}, {Weight: 3}}
	terms := referenceTerms()
	terms.DPPercent = pct(30)
	assert.Equal(t, Distribute(terms, DefaultPolicy(), contribs), Distribute(terms, DefaultPolicy(), contribs))
}

func TestDistributeNoWeightsNoNaN(t *testing.T) {
	d := Distribute(referenceTerms(), DefaultPolicy(), nil)
	assert.Empty(t, d.Developers)
	assert.Equal(t, Money(0), d.Breakdown.FeePerPoint)
	assert.False(t, math.IsNaN(float64(d.UnallocatedAmount)))
	assert.Equal(t, Money(76000), d.UnallocatedAmount)

	terms := referenceTerms()
	terms.EstimatedTotalWeight = f64(math.NaN())
	assert.Equal(t, DefaultEstimatedTotalWeight, terms.Estimate())
	terms.EstimatedTotalWeight = f64(0)
	assert.Equal(t, DefaultEstimatedTotalWeight, terms.Estimate())
}

func TestTranchesDefaultsAndOverrides(t *testing.T) {
	terms := referenceTerms()
	assert.Equal(t, Tranches{DP: 50, Completion: 40, Buffer: 10}, terms.Tranches())

	terms.DPPercent = pct(60)
	terms.BufferPercent = pct(0)
	assert.Equal(t, Tranches{DP: 60, Completion: 40, Buffer: 0}, terms.Tranches())

	terms.CompletionPercent = pct(Percent(math.NaN()))
	assert.Equal(t, Percent(40), terms.Tranches().Completion)
}

func TestPolicyOverride(t *testing.T) {
	p, err := DefaultPolicy().Override("GROSS", "")
	require.NoError(t, err)
	assert.Equal(t, Policy{ManagementBase: ManagementGross, Denominator: DenominatorRealized}, p)

	_, err = DefaultPolicy().Override("", "median")
	assert.Error(t, err)
}

func TestRounding(t *testing.T) {
	assert.Equal(t, Money(3), RoundMoney(2.5))
	assert.Equal(t, Money(-3), RoundMoney(-2.5))
	assert.Equal(t, Percent(33.3), RoundPercent(100.0/3))
	assert.Equal(t, Money(2714.29), RoundRate(76000.0/28))
	assert.Equal(t, Money(25), Percent(25).Of(100))
}

func TestBudgetBreakdownPoolNeverNegative(t *testing.T) {
	terms := Terms{TotalBudget: 1000, SafetyNetPercent: 10, DeploymentFee: 5000}
	_, _, dep, pool := BudgetBreakdown(terms, ManagementNet)
	assert.Equal(t, Money(5000), dep)
	assert.Equal(t, Money(0), pool)

	d := Distribute(terms, DefaultPolicy(), []Contribution{{DeveloperID: "dev-a", Weight: 7}})
	assert.Equal(t, Money(0), d.Breakdown.TeamFeePool)
	require.Len(t, d.Developers, 1)
	assert.Equal(t, Money(0), d.Developers[0].BaseFee)
	assert.Equal(t, Money(0), d.Developers[0].DPAmount)
	assert.Equal(t, Money(0), d.UnallocatedAmount)
}

func TestFeeForUsesUnroundedRate(t *testing.T) {
	terms := Terms{TotalBudget: 10000000, SafetyNetPercent: 10, ManagementFeePercent: 10, DeploymentFee: 5000}
	contributions := make([]Contribution, 0, 31)
	for i := 0; i < 30; i++ {
		contributions = append(contributions, Contribution{DeveloperID: "dev-a", Weight: 35})
	}
	contributions = append(contributions, Contribution{DeveloperID: "dev-b", Weight: 7})
	d := Distribute(terms, DefaultPolicy(), contributions)

	require.Len(t, d.Developers, 2)
	assert.Equal(t, d.Developers[0].BaseFee, d.FeeFor(1050))
	assert.Equal(t, d.Developers[1].BaseFee, d.FeeFor(7))
	assert.NotEqual(t, d.Developers[0].BaseFee, RoundMoney(Money(1050*float64(d.Breakdown.FeePerPoint))))
	assert.Equal(t, Money(0), d.FeeFor(0))
}
