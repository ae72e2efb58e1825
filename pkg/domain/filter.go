package domain

import "strings"

// PropertyFilter narrows a display list. Zero-valued fields match everything.
type PropertyFilter struct {
	Region       string
	Ward         string
	PropertyType string
	Status       string
	Plan         string
	MinPrice     int64
	MaxPrice     int64
	MinBedrooms  int
	OwnerID      string
	Source       Source
	// Query matches case-insensitively against title, location and description.
	Query string
}

// Match reports whether p satisfies every populated criterion.
func (f PropertyFilter) Match(p DisplayProperty) bool {
	if f.Region != "" && !strings.EqualFold(Slugify(f.Region), Slugify(p.Region)) {
		return false
	}
	if f.Ward != "" && !strings.EqualFold(Slugify(f.Ward), Slugify(p.Ward)) {
		return false
	}
	if f.PropertyType != "" && !strings.EqualFold(f.PropertyType, p.PropertyType) {
		return false
	}
	if f.Status != "" && f.Status != p.Status {
		return false
	}
	if f.Plan != "" && f.Plan != p.Plan {
		return false
	}
	if f.MinPrice > 0 && p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if f.MinBedrooms > 0 && p.Bedrooms < f.MinBedrooms {
		return false
	}
	if f.OwnerID != "" && f.OwnerID != p.OwnerID {
		return false
	}
	if f.Source != "" && f.Source != p.Source {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		haystack := strings.ToLower(p.Title + " " + p.Location + " " + p.Description)
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

// Apply returns the entries of in matching f, preserving order.
func (f PropertyFilter) Apply(in []DisplayProperty) []DisplayProperty {
	out := make([]DisplayProperty, 0, len(in))
	for _, p := range in {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
