package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDisplaySynthesizesFromSlugs(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	d := ToDisplay(SubmittedProperty{
		ID:           "1709287200000",
		PropertyType: "2-bdrm-apartment",
		Region:       "arusha",
		Ward:         "sakina",
		Price:        "500,000",
		PaymentPlan:  "6+",
		Status:       StatusAvailable,
		CreatedAt:    created,
	})

	assert.Contains(t, d.Title, "2 Bdrm Apartment")
	assert.Equal(t, 2, d.Bedrooms)
	assert.Equal(t, 2, d.Bathrooms)
	assert.Equal(t, int64(500000), d.Price)
	assert.Contains(t, d.Location, "Sakina, Arusha")
	assert.Equal(t, Plan6, d.Plan)
	assert.Equal(t, SourceSubmitted, d.Source)
	assert.Contains(t, d.Description, "available for rent")
	assert.Equal(t, created, d.EffectiveTime())
}

func TestToDisplayKeepsExplicitValues(t *testing.T) {
	d := ToDisplay(SubmittedProperty{
		PropertyType:  "3-bdrm-house",
		Title:         "Family house near the market",
		Description:   "Quiet street.",
		Bedrooms:      "4",
		Bathrooms:     "3",
		SquareFootage: "1,200",
		Price:         "1.200.000",
		Status:        StatusOccupied,
	})
	assert.Equal(t, "Family house near the market", d.Title)
	assert.Equal(t, "Quiet street.", d.Description)
	assert.Equal(t, 4, d.Bedrooms)
	assert.Equal(t, 3, d.Bathrooms)
	assert.Equal(t, 1200.0, d.Area)
	assert.Equal(t, int64(1200000), d.Price)
	assert.Equal(t, Plan3, d.Plan)
}

func TestToDisplayDoesNotAliasInput(t *testing.T) {
	p := SubmittedProperty{PropertyType: "room", Images: []string{"a.jpg"}, Amenities: []string{"water"}}
	d := ToDisplay(p)
	d.Images[0] = "changed"
	d.Amenities[0] = "changed"
	assert.Equal(t, "a.jpg", p.Images[0])
	assert.Equal(t, "water", p.Amenities[0])
	assert.Equal(t, "a.jpg", ToDisplay(p).MainImage())
}

func TestToDisplayBackfillsOwner(t *testing.T) {
	d := ToDisplay(SubmittedProperty{PropertyType: "room", ContactEmail: "a@b.tz", ContactName: "Asha"})
	assert.Equal(t, "a@b.tz", d.OwnerEmail)
	assert.Equal(t, "Asha", d.OwnerName)
	assert.Empty(t, d.OwnerID)
}

func TestInferBedroomsAndBathrooms(t *testing.T) {
	cases := []struct {
		propertyType string
		bedrooms     int
		bathrooms    int
	}{
		{"1-bdrm-apartment", 1, 1},
		{"2-bdrm-house", 2, 2},
		{"5-BDRM-villa", 5, 2},
		{"studio", 2, 2},
		{"", 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.propertyType, func(t *testing.T) {
			beds := InferBedrooms(tc.propertyType)
			assert.Equal(t, tc.bedrooms, beds)
			assert.Equal(t, tc.bathrooms, InferBathrooms(beds))
		})
	}
	assert.Equal(t, 1, InferBathrooms(0))
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, int64(0), ParsePrice(""))
	assert.Equal(t, int64(0), ParsePrice("n/a"))
	assert.Equal(t, int64(750000), ParsePrice("TSh 750,000"))
	assert.Equal(t, int64(0), ParsePrice("99999999999999999999999"))
	assert.Equal(t, int64(500000), ParsePrice("500,000.50"))
	assert.Equal(t, int64(1200000), ParsePrice("TSh 1,200,000.00 /month"))
	assert.Equal(t, int64(1200000), ParsePrice("1.200.000"))
	assert.Equal(t, 0.0, ParseArea("big"))
	assert.Equal(t, 0.0, ParseArea("-3"))
	assert.Equal(t, 85.5, ParseArea(" 85.5 "))
	assert.Equal(t, Plan12, NormalizePlan("12+"))
	assert.Equal(t, Plan3, NormalizePlan("24+"))
}

func TestSlugHelpers(t *testing.T) {
	assert.Equal(t, "dar-es-salaam", Slugify("  Dar es Salaam "))
	assert.Equal(t, "Dar Es Salaam", Humanize("dar-es-salaam"))
	assert.Equal(t, "", Humanize(" - "))
	assert.Equal(t, "Arusha", FormatLocation("", "arusha"))
	assert.Equal(t, "Kariakoo, Dar Es Salaam", FormatLocation("kariakoo", "dar_es_salaam"))
}

func TestStaticToDisplay(t *testing.T) {
	d := StaticToDisplay(StaticProperty{ID: "s1", Title: "Seed", Price: -5, Images: []string{"x"}})
	require.Equal(t, SourceStatic, d.Source)
	assert.Equal(t, int64(0), d.Price)
	assert.Equal(t, Plan3, d.Plan)
	assert.True(t, d.EffectiveTime().IsZero())
	assert.Empty(t, d.Region)

	d = StaticToDisplay(StaticProperty{ID: "s2", Location: "Njiro, Arusha"})
	assert.Equal(t, "arusha", d.Region)
	assert.Equal(t, "njiro", d.Ward)
	assert.Equal(t, "Njiro, Arusha", d.Location)
}

func TestSplitLocation(t *testing.T) {
	ward, region := SplitLocation("Capri Point, Mwanza")
	assert.Equal(t, "capri-point", ward)
	assert.Equal(t, "mwanza", region)
	ward, region = SplitLocation("Dodoma")
	assert.Empty(t, ward)
	assert.Equal(t, "dodoma", region)
	ward, region = SplitLocation(FormatLocation("kariakoo", "dar-es-salaam"))
	assert.Equal(t, "kariakoo", ward)
	assert.Equal(t, "dar-es-salaam", region)
}

func TestEffectiveTimePrefersUpdatedAt(t *testing.T) {
	created := time.Unix(100, 0).UTC()
	updated := time.Unix(200, 0).UTC()
	p := SubmittedProperty{CreatedAt: created, UpdatedAt: &updated}
	assert.Equal(t, updated, p.EffectiveTime())
	assert.Equal(t, updated, ToDisplay(p).EffectiveTime())

	clone := p.Clone()
	*clone.UpdatedAt = created
	assert.Equal(t, updated, *p.UpdatedAt)
}
