// Package patients resolves patient records referenced by pedigree nodes.
//
// Pedigree nodes link to patients only by identifier. A [Repository] turns an
// identifier into a [Patient] and always answers explicitly: a missing patient
// is a PATIENT_NOT_FOUND error and a broken backend is STORE_UNAVAILABLE,
// never a nil record with a nil error.
package patients

import (
	"context"
	"strings"
)

// Patient is the part of a patient record the pedigree tools display.
type Patient struct {
	ID          string `json:"id" bson:"_id"`
	ExternalID  string `json:"externalId,omitempty" bson:"external_id,omitempty"`
	FirstName   string `json:"firstName,omitempty" bson:"first_name,omitempty"`
	LastName    string `json:"lastName,omitempty" bson:"last_name,omitempty"`
	Gender      string `json:"gender,omitempty" bson:"gender,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty" bson:"date_of_birth,omitempty"`
}

// Name returns "First Last", falling back to the external identifier.
func (p *Patient) Name() string {
	if name := strings.TrimSpace(p.FirstName + " " + p.LastName); name != "" {
		return name
	}
	return p.ExternalID
}

// Repository looks up patients by identifier.
type Repository interface {
	// Get returns the patient or a PATIENT_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Patient, error)
}
