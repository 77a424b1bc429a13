package valuation

// ValueLTA values leave travel assistance. The exemption is the lower of the
// amount claimed and the comparable public-transport fare for the same
// journey, and is available at most twice per four-year block; claims beyond
// the block limit are fully taxable.
func ValueLTA(l LTA, ctx Context) Result {
	var warnings []string
	t := ctx.Tables

	claimed := amount(l.Claimed, "claimed", &warnings)
	fare := amount(l.PublicFare, "public_fare", &warnings)

	if l.ClaimStart != nil && l.ClaimEnd != nil && l.ClaimStart.After(*l.ClaimEnd) {
		warnings = append(warnings, "claim_start after claim_end, claim window ignored")
	}

	if l.ClaimsInBlock > t.LTAClaimsPerBlock {
		warnings = append(warnings, "claims in block exhausted, no exemption available")
		return clampResult(claimed, "lta", warnings)
	}

	exempt := claimed
	if fare < exempt {
		exempt = fare
	}

	return Result{TaxableValue: claimed - exempt, Exemption: exempt, Warnings: warnings}
}
