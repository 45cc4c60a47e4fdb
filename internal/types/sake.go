package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUsers is the registration ceiling for a single installation.
const MaxUsers = 10

type User struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// FlavorProfile holds five attributes on a 0-10 scale. The range is a
// convention of the model output and is not enforced here.
type FlavorProfile struct {
	Sweetness int `json:"sweetness" yaml:"sweetness"`
	Acidity   int `json:"acidity" yaml:"acidity"`
	Umami     int `json:"umami" yaml:"umami"`
	Richness  int `json:"richness" yaml:"richness"`
	Fragrance int `json:"fragrance" yaml:"fragrance"`
}

// NeutralFlavorProfile is the profile used when nothing better is known.
func NeutralFlavorProfile() FlavorProfile {
	return FlavorProfile{Sweetness: 5, Acidity: 5, Umami: 5, Richness: 5, Fragrance: 5}
}

type SakeBrand struct {
	ID            string        `json:"id" yaml:"id"`
	UserID        string        `json:"userId" yaml:"userId"`
	Name          string        `json:"name" yaml:"name"`
	Brewery       string        `json:"brewery,omitempty" yaml:"brewery,omitempty"`
	Region        string        `json:"region,omitempty" yaml:"region,omitempty"`
	FlavorProfile FlavorProfile `json:"flavorProfile" yaml:"flavorProfile"`
	CreatedAt     time.Time     `json:"createdAt" yaml:"createdAt"`
}

// NewUser creates a user with a fresh id.
func NewUser(name string) User {
	return User{ID: uuid.NewString(), Name: strings.TrimSpace(name), CreatedAt: time.Now().UTC()}
}

// NewBrand records an analysis result as a brand owned by userID. The brand
// is named after the identified name, not what the user typed.
func NewBrand(userID string, a BrandAnalysis) SakeBrand {
	return SakeBrand{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          a.IdentifiedName,
		Brewery:       a.Brewery,
		Region:        a.Region,
		FlavorProfile: a.FlavorProfile,
		CreatedAt:     time.Now().UTC(),
	}
}

// BrandAnalysis is what the model knows about a brand name.
type BrandAnalysis struct {
	IdentifiedName string        `json:"identifiedName"`
	Brewery        string        `json:"brewery,omitempty"`
	Region         string        `json:"region,omitempty"`
	FlavorProfile  FlavorProfile `json:"flavorProfile"`
}

type RecommendedSake struct {
	Name            string        `json:"name"`
	Brewery         string        `json:"brewery,omitempty"`
	MatchScore      int           `json:"matchScore"`
	Reason          string        `json:"reason"`
	FlavorProfile   FlavorProfile `json:"flavorProfile"`
	Characteristics []string      `json:"characteristics"`
}

// MenuAnalysisResult is produced per request and never persisted.
type MenuAnalysisResult struct {
	DetectedSakes   []string          `json:"detectedSakes"`
	Recommendations []RecommendedSake `json:"recommendations"`
	AnalysisText    string            `json:"analysisText"`
}
