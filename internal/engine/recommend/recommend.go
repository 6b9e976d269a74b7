// internal/engine/recommend/recommend.go

// Package recommend composes the scoring, eligibility and weather engines
// into the single bundle the presentation layer consumes.
package recommend

import (
	"agrimarket-workers/internal/engine/creditscore"
	"agrimarket-workers/internal/engine/eligibility"
	"agrimarket-workers/internal/engine/weatherrule"
	"agrimarket-workers/internal/models"
)

// Inputs is everything one bundle needs, snapshotted per request. The rule
// table and catalog are read-only to the engine; it never caches or
// invalidates them.
type Inputs struct {
	Profile  models.FarmerProfile
	Snapshot models.WeatherSnapshot
	Catalog  []models.LoanProduct
	Rules    []weatherrule.Rule
	Policy   creditscore.Policy
	Options  eligibility.Options
}

// BuildBundle runs scoring, offer matching, and weather evaluation in
// sequence and assembles the result. Ordering and filtering happen inside
// the called components; no further transformation is applied here. Any
// invalid input aborts the whole bundle so partial financial advice is
// never returned.
func BuildBundle(in Inputs) (models.RecommendationBundle, error) {
	score, err := creditscore.Compute(in.Profile, in.Policy)
	if err != nil {
		return models.RecommendationBundle{}, err
	}

	offers, err := eligibility.MatchOffers(in.Profile, score, in.Catalog, in.Options)
	if err != nil {
		return models.RecommendationBundle{}, err
	}

	findings, err := weatherrule.Evaluate(in.Snapshot, in.Rules)
	if err != nil {
		return models.RecommendationBundle{}, err
	}

	return models.RecommendationBundle{
		FarmerID:    in.Profile.FarmerID,
		CreditScore: score,
		Offers:      offers,
		Alerts:      findings.Alerts,
		Advisories:  findings.Advisories,
	}, nil
}
