// internal/models/recommendation.go
package models

type PlantRecommendation struct {
	Plant
	WhyRecommended []string `json:"whyRecommended"`
}

type PartnerRecommendation struct {
	PartnerProfile
	WhyRecommended string `json:"whyRecommended"`
}
