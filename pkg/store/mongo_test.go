//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/pedigree/pkg/errors"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("PEDIGREE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("PEDIGREE_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Fatalf("ConnectMongo() error: %v", err)
	}
	defer client.Disconnect(context.Background())

	coll := client.Database("pedigree_test").Collection("families_" + time.Now().Format("150405.000000"))
	defer coll.Drop(context.Background())
	s := NewMongoStore(coll)

	if _, err := s.Get(ctx, "FAM1"); !errors.Is(err, errors.ErrCodeFamilyNotFound) {
		t.Fatalf("Get() error = %v, want %v", err, errors.ErrCodeFamilyNotFound)
	}

	if err := s.Save(ctx, &Record{ID: "FAM1", Data: []byte(familyJSON), Image: "<svg/>"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := s.Get(ctx, "FAM1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got.Data) != familyJSON || got.Image != "<svg/>" {
		t.Errorf("Get() = %+v", got)
	}

	ids, err := s.List(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "FAM1" {
		t.Errorf("List() = %v, %v", ids, err)
	}

	if err := s.Delete(ctx, "FAM1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
}
