package pricing

import "strings"

// Rule names identify which branch of the cascade priced a commodity. They
// appear in Quote.Rule and in Miss.Rule so a caller can tell a direct miss
// from a proxy miss when logging.
const (
	RuleBiomass         = "biomass"
	RuleUranium         = "uranium"
	RuleEthanol         = "ethanol"
	RuleRenewableDiesel = "renewable_diesel"
	RuleSyntheticFuel   = "synthetic_fuel"
	RuleLNGCNGNGL       = "lng_cng_ngl"
	RuleLPG             = "lpg"
	RuleElcCoal         = "e_coal"
	RuleElcGasoline     = "e_gsl"
	RuleResOil          = "r_oil"
	RuleHydrogen        = "h2"
	RulePetCoke         = "pet_coke"
	RuleAgGasoline      = "a_gsl"
	RuleAgNaturalGas    = "a_ng"
	RuleAgDiesel        = "a_dsl"
	RuleAgPropane       = "a_prop"
	RuleMarineDiesel    = "mdo"
	RuleDirect          = "direct"
)

// Empirically tuned proxy multipliers inherited from the upstream price
// series. Do not re-derive these; every dependent price shifts if they move.
const (
	lngProxyFactor = 0.89 // LNG/CNG/NGL priced off natural gas / propane
	mdoProxyFactor = 0.9  // marine diesel oil priced off transport diesel
)

// Miss records a (period, technical name) pair that had no entry in the raw
// cost table, along with the rule that needed it. A miss contributes 0.0 to
// the price; it never aborts resolution.
type Miss struct {
	Name   string
	Period int
	Rule   string
}

// Quote is the outcome of one resolution: the price in model units, the
// rule that produced it, and any lookup misses encountered on the way.
type Quote struct {
	Value  float64
	Rule   string
	Misses []Miss
}

// Resolve prices one technical name for one period.
//
// Matching is case-insensitive and first-match-wins over an ordered rule
// cascade. Order is observable behavior: category tokens overlap (a name can
// contain both "bio" and "lng"), so the sequence below must stay exactly as
// it is. Resolve is total over its inputs; a name absent from the raw table
// degrades to a zero price reported via Quote.Misses.
func Resolve(name string, period int, costs *CostIndex, ov Overrides, f Factors) Quote {
	r := resolution{
		lower:  strings.ToLower(name),
		period: period,
		costs:  costs,
		f:      f,
	}

	switch {
	case r.has("bio") || r.has("wood"):
		return r.quote(RuleBiomass, r.chain22(ov.BiomassPrice))

	case r.has("u_nat") || r.has("u_enr"):
		return r.quote(RuleUranium, r.chain22(ov.UraniumPrice))

	case r.has("eth"):
		return r.quote(RuleEthanol, f.EthPrice)

	case r.has("rdsl"):
		return r.quote(RuleRenewableDiesel, f.RdslPrice)

	case r.has("spk"):
		return r.quote(RuleSyntheticFuel, f.SpkPrice)

	case r.has("lng") || r.has("cng") || r.has("ngl"):
		// LNG/CNG proxy to transport natural gas; NGL falls back to
		// industrial propane.
		proxy := "I_prop"
		if r.has("lng") || r.has("cng") {
			proxy = "T_ng"
		}
		return r.quote(RuleLNGCNGNGL, r.chain25(r.base(RuleLNGCNGNGL, proxy))*lngProxyFactor)

	case r.has("lpg"):
		// Residential LPG uses residential propane; everything else uses
		// transport propane.
		proxy := "T_prop"
		if r.lower == "f_r_lpg" {
			proxy = "R_prop"
		}
		return r.quote(RuleLPG, r.chain25(r.base(RuleLPG, proxy)))

	case r.has("e_coal"):
		return r.quote(RuleElcCoal, r.chain25(r.base(RuleElcCoal, "I_coal")))

	case r.has("e_gsl"):
		return r.quote(RuleElcGasoline, r.chain25(r.base(RuleElcGasoline, "T_gsl")))

	case r.has("r_oil"):
		return r.quote(RuleResOil, r.chain25(r.base(RuleResOil, "C_oil")))

	case r.has("c_h2") || r.has("r_h2"):
		return r.quote(RuleHydrogen, r.chain25(r.base(RuleHydrogen, "I_h2")))

	case r.has("i_pcoke") || r.has("i_coke"):
		return r.quote(RulePetCoke, r.chain25(r.base(RulePetCoke, "I_coal")))

	case r.has("a_gsl"):
		return r.quote(RuleAgGasoline, r.chain25(r.base(RuleAgGasoline, "T_gsl")))

	case r.has("a_ng"):
		return r.quote(RuleAgNaturalGas, r.chain25(r.base(RuleAgNaturalGas, "I_ng")))

	case r.has("a_dsl"):
		return r.quote(RuleAgDiesel, r.chain25(r.base(RuleAgDiesel, "T_dsl")))

	case r.has("a_prop"):
		return r.quote(RuleAgPropane, r.chain25(r.base(RuleAgPropane, "T_prop")))

	case r.has("mdo"):
		return r.quote(RuleMarineDiesel, r.chain25(r.base(RuleMarineDiesel, "T_dsl"))*mdoProxyFactor)
	}

	return r.quote(RuleDirect, r.chain25(r.base(RuleDirect, name)))
}

// resolution carries the per-call state so the rule bodies above stay
// one-liners.
type resolution struct {
	lower  string
	period int
	costs  *CostIndex
	f      Factors
	misses []Miss
}

func (r *resolution) has(sub string) bool { return strings.Contains(r.lower, sub) }

// base pulls a raw price for name, recording a miss (and substituting 0.0)
// when the raw table has no entry for this period.
func (r *resolution) base(rule, name string) float64 {
	v, ok := r.costs.Lookup(r.period, name)
	if !ok {
		r.misses = append(r.misses, Miss{Name: name, Period: r.period, Rule: rule})
		return 0.0
	}
	return v
}

// chain22 applies the BTU conversion, currency adjustment, and 2022-base
// deflator; chain25 is the same chain with the 2025-base deflator.
func (r *resolution) chain22(base float64) float64 {
	return ((base * r.f.MMBTUConvertor) * r.f.CurrencyAdjustment) * r.f.Deflation2022
}

func (r *resolution) chain25(base float64) float64 {
	return ((base * r.f.MMBTUConvertor) * r.f.CurrencyAdjustment) * r.f.Deflation2025
}

func (r *resolution) quote(rule string, v float64) Quote {
	return Quote{Value: v, Rule: rule, Misses: r.misses}
}
