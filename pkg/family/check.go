package family

import (
	"context"
	"sort"
	"strings"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/patients"
	"github.com/matzehuels/pedigree/pkg/pedigree/markup"
)

// Report compares the patient links of a family's document and image.
// Identifiers are compared case-insensitively, the way links are removed.
type Report struct {
	FamilyID string `json:"familyId"`

	// DocumentIDs are the ids linked from document nodes, in node order.
	DocumentIDs []string `json:"documentIds"`

	// ImageIDs are the ids carried by image regions, in document order.
	ImageIDs []string `json:"imageIds"`

	// OnlyInDocument lists document ids with no image region.
	OnlyInDocument []string `json:"onlyInDocument"`

	// OnlyInImage lists image ids no document node links to.
	OnlyInImage []string `json:"onlyInImage"`
}

// Consistent reports whether document and image link the same patients.
// A family without an image is always consistent.
func (r *Report) Consistent() bool {
	return len(r.OnlyInDocument) == 0 && len(r.OnlyInImage) == 0
}

// Check builds the consistency report for a family. An empty image is not
// compared.
func (s *Service) Check(ctx context.Context, familyID string) (*Report, error) {
	p, err := s.Load(ctx, familyID)
	if err != nil {
		return nil, err
	}

	docIDs, err := p.ExtractIDs()
	if err != nil {
		return nil, err
	}

	r := &Report{
		FamilyID:       familyID,
		DocumentIDs:    docIDs,
		ImageIDs:       []string{},
		OnlyInDocument: []string{},
		OnlyInImage:    []string{},
	}
	if p.RawImage() == "" {
		return r, nil
	}

	imageIDs, err := s.checkImage(p.RawImage())
	if err != nil {
		return nil, err
	}
	r.ImageIDs = imageIDs
	r.OnlyInDocument = missingFrom(docIDs, imageIDs)
	r.OnlyInImage = missingFrom(imageIDs, docIDs)
	return r, nil
}

// checkImage parses an image and returns its region ids.
func (s *Service) checkImage(image string) ([]string, error) {
	ids, err := markup.LinkedIDs(image)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// missingFrom returns the distinct ids of a that have no case-insensitive
// match in b, keeping first-seen order.
func missingFrom(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, id := range b {
		in[strings.ToLower(id)] = true
	}

	out := []string{}
	seen := make(map[string]bool)
	for _, id := range a {
		k := strings.ToLower(id)
		if in[k] || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, id)
	}
	return out
}

// Linked is the result of resolving a family's linked ids.
type Linked struct {
	// Patients holds the resolved patients, sorted by id.
	Patients []patients.Patient `json:"patients"`

	// Missing lists linked ids the repository does not know.
	Missing []string `json:"missing"`
}

// LinkedPatients resolves every distinct linked id through the patient
// repository. Unknown ids are reported in Missing; any other lookup failure
// aborts.
func (s *Service) LinkedPatients(ctx context.Context, familyID string) (*Linked, error) {
	ids, err := s.LinkedIDs(ctx, familyID)
	if err != nil {
		return nil, err
	}

	out := &Linked{Patients: []patients.Patient{}, Missing: []string{}}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		var p *patients.Patient
		err := cache.RetryWithBackoff(ctx, func() error {
			var err error
			p, err = s.Patients.Get(ctx, id)
			return err
		})
		switch {
		case errors.Is(err, errors.ErrCodePatientNotFound), errors.Is(err, errors.ErrCodeInvalidInput):
			out.Missing = append(out.Missing, id)
		case err != nil:
			return nil, err
		default:
			out.Patients = append(out.Patients, *p)
		}
	}

	sort.Slice(out.Patients, func(i, j int) bool { return out.Patients[i].ID < out.Patients[j].ID })
	return out, nil
}
