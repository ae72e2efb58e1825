// Package domain holds the property types shared by the repository, the
// derived-set managers and their consumers. It has no storage dependencies.
package domain

import "time"

// Source identifies where a display record originated.
type Source string

const (
	SourceStatic    Source = "static"
	SourceSubmitted Source = "submitted"
)

// Listing status values accepted for submitted properties.
const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
)

// Payment plans, expressed in months paid upfront.
const (
	Plan3  = "3+"
	Plan6  = "6+"
	Plan12 = "12+"
)

// Uploader types recorded on submissions.
const (
	UploaderBroker = "Broker"
	UploaderOwner  = "Owner"
)

// StaticProperty is a compiled-in seed listing. It carries no owner metadata
// and is never edited at runtime.
type StaticProperty struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Images      []string `json:"images"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	Area        float64  `json:"area"`
}

// SubmittedProperty is a user-created listing persisted in the submission store.
// Numeric fields arrive as form strings and are parsed only when displayed.
type SubmittedProperty struct {
	ID              string     `json:"id"`
	PropertyType    string     `json:"propertyType" validate:"required"`
	Status          string     `json:"status" validate:"required,oneof=available occupied"`
	Region          string     `json:"region" validate:"required"`
	Ward            string     `json:"ward" validate:"required"`
	Price           string     `json:"price" validate:"required,price"`
	PaymentPlan     string     `json:"paymentPlan" validate:"omitempty,oneof=3+ 6+ 12+"`
	Bedrooms        string     `json:"bedrooms,omitempty" validate:"omitempty,numeric"`
	Bathrooms       string     `json:"bathrooms,omitempty" validate:"omitempty,numeric"`
	SquareFootage   string     `json:"squareFootage,omitempty"`
	Title           string     `json:"title,omitempty"`
	Description     string     `json:"description,omitempty"`
	Amenities       []string   `json:"amenities,omitempty"`
	Images          []string   `json:"images,omitempty"`
	ContactName     string     `json:"contactName,omitempty"`
	ContactPhone    string     `json:"contactPhone,omitempty"`
	ContactEmail    string     `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactWhatsApp string     `json:"contactWhatsapp,omitempty"`
	UploaderType    string     `json:"uploaderType,omitempty" validate:"omitempty,oneof=Broker Owner"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
	OwnerID         string     `json:"ownerId,omitempty"`
	OwnerEmail      string     `json:"ownerEmail,omitempty"`
	OwnerName       string     `json:"ownerName,omitempty"`
}

// EffectiveTime returns UpdatedAt when set, otherwise CreatedAt.
func (p SubmittedProperty) EffectiveTime() time.Time {
	if p.UpdatedAt != nil && !p.UpdatedAt.IsZero() {
		return *p.UpdatedAt
	}
	return p.CreatedAt
}

// WithOwnerBackfill fills missing owner email and name from the contact fields.
// Records written before ownership tracking only carry contact details.
func (p SubmittedProperty) WithOwnerBackfill() SubmittedProperty {
	if p.OwnerEmail == "" {
		p.OwnerEmail = p.ContactEmail
	}
	if p.OwnerName == "" {
		p.OwnerName = p.ContactName
	}
	return p
}

// Clone returns a deep copy so callers cannot alias stored slices.
func (p SubmittedProperty) Clone() SubmittedProperty {
	cp := p
	cp.Amenities = cloneStrings(p.Amenities)
	cp.Images = cloneStrings(p.Images)
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		cp.UpdatedAt = &t
	}
	return cp
}

// DisplayProperty is the read-only shape rendered by consumers for both sources.
type DisplayProperty struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Location        string     `json:"location"`
	Description     string     `json:"description"`
	Price           int64      `json:"price"`
	Plan            string     `json:"plan"`
	Images          []string   `json:"images"`
	Bedrooms        int        `json:"bedrooms"`
	Bathrooms       int        `json:"bathrooms"`
	Area            float64    `json:"area"`
	PropertyType    string     `json:"propertyType,omitempty"`
	Status          string     `json:"status,omitempty"`
	Region          string     `json:"region,omitempty"`
	Ward            string     `json:"ward,omitempty"`
	Amenities       []string   `json:"amenities,omitempty"`
	ContactName     string     `json:"contactName,omitempty"`
	ContactPhone    string     `json:"contactPhone,omitempty"`
	ContactEmail    string     `json:"contactEmail,omitempty"`
	ContactWhatsApp string     `json:"contactWhatsapp,omitempty"`
	UploaderType    string     `json:"uploaderType,omitempty"`
	OwnerID         string     `json:"ownerId,omitempty"`
	OwnerEmail      string     `json:"ownerEmail,omitempty"`
	OwnerName       string     `json:"ownerName,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
	Source          Source     `json:"source"`
}

// EffectiveTime returns UpdatedAt when set, otherwise CreatedAt. Static
// records have neither and report the zero time.
func (d DisplayProperty) EffectiveTime() time.Time {
	if d.UpdatedAt != nil && !d.UpdatedAt.IsZero() {
		return *d.UpdatedAt
	}
	return d.CreatedAt
}

// MainImage returns the first image or an empty string when none exist.
func (d DisplayProperty) MainImage() string {
	if len(d.Images) == 0 {
		return ""
	}
	return d.Images[0]
}

// RecentlyRemoved records a bookmark the user removed, kept for restore.
type RecentlyRemoved struct {
	PropertyID string    `json:"propertyId"`
	RemovedAt  time.Time `json:"removedAt"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
