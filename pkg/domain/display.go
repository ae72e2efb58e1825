package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const defaultBedrooms = 2

var (
	bedroomPattern = regexp.MustCompile(`(?i)(\d+)-bdrm`)
	priceFraction  = regexp.MustCompile(`\d[.,]\d{1,2}\D*$`)
)

// ToDisplay converts a submitted record into its display shape. It performs no
// I/O and returns the same output for the same input.
func ToDisplay(p SubmittedProperty) DisplayProperty {
	p = p.WithOwnerBackfill()
	typeLabel := Humanize(p.PropertyType)
	location := FormatLocation(p.Ward, p.Region)

	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = typeLabel
		if ward := Humanize(p.Ward); ward != "" {
			title = fmt.Sprintf("%s in %s", typeLabel, ward)
		}
	}
	description := strings.TrimSpace(p.Description)
	if description == "" {
		description = synthesizeDescription(typeLabel, p.Status, location)
	}

	bedrooms, ok := parseCount(p.Bedrooms)
	if !ok {
		bedrooms = InferBedrooms(p.PropertyType)
	}
	bathrooms, ok := parseCount(p.Bathrooms)
	if !ok {
		bathrooms = InferBathrooms(bedrooms)
	}

	updated := p.UpdatedAt
	if updated != nil {
		t := *updated
		updated = &t
	}
	return DisplayProperty{
		ID:              p.ID,
		Title:           title,
		Location:        location,
		Description:     description,
		Price:           ParsePrice(p.Price),
		Plan:            NormalizePlan(p.PaymentPlan),
		Images:          cloneStrings(p.Images),
		Bedrooms:        bedrooms,
		Bathrooms:       bathrooms,
		Area:            ParseArea(p.SquareFootage),
		PropertyType:    p.PropertyType,
		Status:          p.Status,
		Region:          p.Region,
		Ward:            p.Ward,
		Amenities:       cloneStrings(p.Amenities),
		ContactName:     p.ContactName,
		ContactPhone:    p.ContactPhone,
		ContactEmail:    p.ContactEmail,
		ContactWhatsApp: p.ContactWhatsApp,
		UploaderType:    p.UploaderType,
		OwnerID:         p.OwnerID,
		OwnerEmail:      p.OwnerEmail,
		OwnerName:       p.OwnerName,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       updated,
		Source:          SourceSubmitted,
	}
}

// StaticToDisplay converts a seed listing. Seed data carries no timestamps so
// it sorts after every submission. Ward and region are read back from a
// "Ward, Region" location so seed listings answer the same filters.
func StaticToDisplay(p StaticProperty) DisplayProperty {
	price := p.Price
	if price < 0 {
		price = 0
	}
	ward, region := SplitLocation(p.Location)
	return DisplayProperty{
		ID:          p.ID,
		Title:       p.Title,
		Location:    p.Location,
		Description: p.Description,
		Price:       price,
		Plan:        Plan3,
		Images:      cloneStrings(p.Images),
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		Area:        p.Area,
		Status:      StatusAvailable,
		Region:      region,
		Ward:        ward,
		Source:      SourceStatic,
	}
}

// InferBedrooms reads the count from an "N-bdrm" property type, defaulting to 2.
func InferBedrooms(propertyType string) int {
	m := bedroomPattern.FindStringSubmatch(propertyType)
	if len(m) < 2 {
		return defaultBedrooms
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return defaultBedrooms
	}
	return n
}

// InferBathrooms maps a bedroom count to a bathroom count: 1→1, 2→2, ≥3→2.
func InferBathrooms(bedrooms int) int {
	if bedrooms <= 1 {
		return 1
	}
	return 2
}

// ParsePrice returns the integer part of a price string. Thousands separators
// (commas, spaces, or dots grouping three digits) and currency text are
// ignored; a trailing "." or "," followed by one or two digits is read as the
// decimal part and dropped. Unparseable input yields 0.
func ParsePrice(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if m := priceFraction.FindStringIndex(raw); m != nil {
		raw = raw[:m[0]+1]
	}
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ParseArea parses a square footage string, returning 0 when unparseable.
func ParseArea(raw string) float64 {
	clean := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// NormalizePlan returns plan when it is a known payment plan, otherwise 3+.
func NormalizePlan(plan string) string {
	switch strings.TrimSpace(plan) {
	case Plan6:
		return Plan6
	case Plan12:
		return Plan12
	default:
		return Plan3
	}
}

// Humanize turns a slug such as "2-bdrm-apartment" into "2 Bdrm Apartment".
func Humanize(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// Slugify lowercases s and joins its words with hyphens.
func Slugify(s string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(s)))
	return strings.Join(words, "-")
}

// FormatLocation renders "Ward, Region" from slugs, dropping empty parts.
func FormatLocation(ward, region string) string {
	parts := make([]string, 0, 2)
	if w := Humanize(ward); w != "" {
		parts = append(parts, w)
	}
	if r := Humanize(region); r != "" {
		parts = append(parts, r)
	}
	return strings.Join(parts, ", ")
}

// SplitLocation reverses FormatLocation, returning ward and region slugs. A
// location without a comma is taken as a region.
func SplitLocation(location string) (ward, region string) {
	i := strings.LastIndex(location, ",")
	if i < 0 {
		return "", Slugify(location)
	}
	return Slugify(location[:i]), Slugify(location[i+1:])
}

func synthesizeDescription(typeLabel, status, location string) string {
	if typeLabel == "" {
		typeLabel = "Property"
	}
	availability := "available for rent"
	if status == StatusOccupied {
		availability = "currently occupied"
	}
	if location == "" {
		return fmt.Sprintf("%s %s.", typeLabel, availability)
	}
	return fmt.Sprintf("%s %s in %s.", typeLabel, availability, location)
}

func parseCount(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
