// internal/models/catalog.go
package models

const (
	LocationTypeState = "state"
	LocationTypeCity  = "city"

	PartnerStatusActive = "active"
)

type PlantLocation struct {
	Type  string `json:"locationType"`
	Value string `json:"locationValue"`
}

type Plant struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	ScientificName  string          `json:"scientificName,omitempty"`
	Description     string          `json:"description,omitempty"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	SpaceTypes      []string        `json:"spaceTypes"`
	AreaSizes       []string        `json:"areaSizes"`
	Challenges      []string        `json:"challenges"`
	TechPreferences []string        `json:"techPreferences"`
	Locations       []PlantLocation `json:"locations"`
}

// Tags returns the tag collection backing a question category.
func (p Plant) Tags(c QuestionCategory) []string {
	switch c {
	case CategorySpaceType:
		return p.SpaceTypes
	case CategoryAreaSize:
		return p.AreaSizes
	case CategoryChallenge:
		return p.Challenges
	case CategoryTechPreference:
		return p.TechPreferences
	}
	return nil
}

type PartnerProfile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	LogoURL     string   `json:"logoUrl,omitempty"`
	Status      string   `json:"status"`
	State       string   `json:"state"`
	City        string   `json:"city"`
	Rating      *float64 `json:"rating"`
}
