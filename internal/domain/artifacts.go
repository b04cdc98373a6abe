// Package domain – artifact type enumeration.
package domain

// Artifact types form a closed enumeration; creation with an unknown type is
// rejected at the service layer.
const (
	ArtifactCompetitorList = "competitor_list"
	ArtifactOffer          = "offer"
	ArtifactBusinessPlan   = "business_plan"
	ArtifactPitch          = "pitch"
	ArtifactOutreachEmail  = "outreach_email"
	ArtifactGrowthPlan     = "growth_plan"
)

// artifactTypes is the full closed set, in a stable presentation order.
var artifactTypes = []string{
	ArtifactCompetitorList,
	ArtifactOffer,
	ArtifactBusinessPlan,
	ArtifactPitch,
	ArtifactOutreachEmail,
	ArtifactGrowthPlan,
}

// ValidArtifactType reports whether t is part of the closed enumeration.
func ValidArtifactType(t string) bool {
	for _, known := range artifactTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ArtifactTypes returns the closed enumeration (copy, stable order).
func ArtifactTypes() []string {
	out := make([]string, len(artifactTypes))
	copy(out, artifactTypes)
	return out
}
