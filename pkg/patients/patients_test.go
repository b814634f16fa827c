package patients

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/pedigree/pkg/errors"
)

func TestPatientName(t *testing.T) {
	tests := []struct {
		name string
		p    Patient
		want string
	}{
		{"full name", Patient{FirstName: "Ann", LastName: "Lee"}, "Ann Lee"},
		{"first only", Patient{FirstName: "Ann"}, "Ann"},
		{"external fallback", Patient{ExternalID: "EXT-1"}, "EXT-1"},
		{"nothing", Patient{ID: "P1"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository(Patient{ID: "P001", FirstName: "Ann"})

	p, err := r.Get(ctx, "P001")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if p.FirstName != "Ann" {
		t.Errorf("FirstName = %q, want Ann", p.FirstName)
	}

	p.FirstName = "Changed"
	if again, _ := r.Get(ctx, "P001"); again.FirstName != "Ann" {
		t.Error("Get() should return a copy")
	}

	if _, err := r.Get(ctx, "p001"); !errors.Is(err, errors.ErrCodePatientNotFound) {
		t.Errorf("Get(p001) error = %v, want %v", err, errors.ErrCodePatientNotFound)
	}
	if _, err := r.Get(ctx, ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Get(\"\") error = %v, want %v", err, errors.ErrCodeInvalidInput)
	}

	r.Put(Patient{ID: "P000"})
	all := r.All()
	if len(all) != 2 || all[0].ID != "P000" {
		t.Errorf("All() = %+v, want sorted by id", all)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	r, err := LoadFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("LoadFile(missing) error: %v", err)
	}
	if len(r.All()) != 0 {
		t.Error("missing file should give an empty repository")
	}

	path := filepath.Join(dir, "patients.json")
	data := `[{"id": "P001", "firstName": "Ann", "lastName": "Lee"}, {"id": "P002", "externalId": "EXT-2"}]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	r, err = LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	p, err := r.Get(context.Background(), "P002")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if p.Name() != "EXT-2" {
		t.Errorf("Name() = %q, want EXT-2", p.Name())
	}

	if err := os.WriteFile(path, []byte(`{"id": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("LoadFile(bad) error = %v, want %v", err, errors.ErrCodeInvalidInput)
	}
}
