package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() SubmittedProperty {
	return SubmittedProperty{
		PropertyType: "2-bdrm-apartment",
		Status:       StatusAvailable,
		Region:       "arusha",
		Ward:         "sakina",
		Price:        "500,000",
		PaymentPlan:  Plan6,
	}
}

func TestValidateAcceptsMinimalSubmission(t *testing.T) {
	require.NoError(t, validSubmission().Validate())
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := map[string]func(*SubmittedProperty){
		"status":       func(p *SubmittedProperty) { p.Status = "sold" },
		"plan":         func(p *SubmittedProperty) { p.PaymentPlan = "1+" },
		"uploader":     func(p *SubmittedProperty) { p.UploaderType = "Agent" },
		"price":        func(p *SubmittedProperty) { p.Price = "free" },
		"region":       func(p *SubmittedProperty) { p.Region = "" },
		"bedrooms":     func(p *SubmittedProperty) { p.Bedrooms = "two" },
		"contactEmail": func(p *SubmittedProperty) { p.ContactEmail = "not-an-email" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validSubmission()
			mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProperty))
		})
	}
}
