package store

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/pedigree/pkg/errors"
)

const familyJSON = `{"GG":[{"id":0,"prop":{"phenotipsId":"P001"}}],"ranks":[1]}`

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "families"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return s
}

func TestFileStoreSaveGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := &Record{ID: "FAM1", Data: []byte(familyJSON), Image: "<svg/>"}
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if r.UpdatedAt.IsZero() {
		t.Error("Save() should set UpdatedAt")
	}

	got, err := s.Get(ctx, "FAM1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got.Data) != familyJSON {
		t.Errorf("Data = %s, want %s", got.Data, familyJSON)
	}
	if got.Image != "<svg/>" {
		t.Errorf("Image = %q, want %q", got.Image, "<svg/>")
	}
	if !got.UpdatedAt.Equal(r.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, r.UpdatedAt)
	}
}

// indentedJSON is saved and read back without reformatting.
const indentedJSON = "{\n  \"GG\": [\n    {\"id\": 0}\n  ]\n}\n"

func TestFileStoreKeepsBytes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, data := range []string{indentedJSON, familyJSON} {
		if err := s.Save(ctx, &Record{ID: "FAM1", Data: []byte(data)}); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
		got, err := s.Get(ctx, "FAM1")
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if string(got.Data) != data {
			t.Errorf("Data = %q, want %q", got.Data, data)
		}
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "FAM404")
	if !errors.Is(err, errors.ErrCodeFamilyNotFound) {
		t.Errorf("Get() error = %v, want %v", err, errors.ErrCodeFamilyNotFound)
	}
}

func TestFileStoreRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tests := []struct {
		name string
		rec  *Record
		code errors.Code
	}{
		{"nil record", nil, errors.ErrCodeInvalidInput},
		{"traversal id", &Record{ID: "../x", Data: []byte(`{}`)}, errors.ErrCodeInvalidInput},
		{"blank id", &Record{ID: " ", Data: []byte(`{}`)}, errors.ErrCodeInvalidInput},
		{"invalid json", &Record{ID: "FAM1", Data: []byte(`{`)}, errors.ErrCodeMalformedDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Save(ctx, tt.rec); !errors.Is(err, tt.code) {
				t.Errorf("Save() error = %v, want %v", err, tt.code)
			}
		})
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(filepath.Join(s.Path(), "FAM1.json"), []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "FAM1"); !errors.Is(err, errors.ErrCodeMalformedDocument) {
		t.Errorf("Get() error = %v, want %v", err, errors.ErrCodeMalformedDocument)
	}
}

func TestFileStoreListDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, id := range []string{"FAM2", "FAM1", "FAM3"} {
		if err := s.Save(ctx, &Record{ID: id, Data: []byte(familyJSON)}); err != nil {
			t.Fatalf("Save(%s) error: %v", id, err)
		}
	}

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if want := []string{"FAM1", "FAM2", "FAM3"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("List() = %v, want %v", ids, want)
	}

	if err := s.Delete(ctx, "FAM2"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := s.Delete(ctx, "FAM2"); err != nil {
		t.Errorf("Delete() of missing family error: %v", err)
	}

	ids, _ = s.List(ctx)
	if want := []string{"FAM1", "FAM3"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("List() after Delete = %v, want %v", ids, want)
	}
}

func TestFileStoreListEmpty(t *testing.T) {
	ids, err := newTestStore(t).List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", ids)
	}
}
