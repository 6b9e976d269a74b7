// internal/workers/advisory/build-recommendation-bundle/models.go
package buildrecommendationbundle

import "agrimarket-workers/internal/models"

type Input struct {
	FarmerID                string `json:"farmerId"`
	Region                  string `json:"region,omitempty"` // defaults to the profile's region
	RequestedPrincipalMinor int64  `json:"requestedPrincipalMinor,omitempty"`
	RequestedTermMonths     int    `json:"requestedTermMonths,omitempty"`
}

type Output struct {
	BundleID  string                      `json:"bundleId"`
	Bundle    models.RecommendationBundle `json:"bundle"`
	IndexedAt string                      `json:"indexedAt"` // ISO 8601
}
