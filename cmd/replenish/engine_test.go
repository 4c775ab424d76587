package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/andresuchdata/autoreplenish/internal/domain"
)

func TestSplitList(t *testing.T) {
	got := splitList([]string{"S1, S2", "", " S3 ,"})
	want := []string{"S1", "S2", "S3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitList = %v, want %v", got, want)
	}
}

func TestFilterStores(t *testing.T) {
	records := []domain.InventoryRecord{
		{ProductID: "P1", StoreID: "S1"},
		{ProductID: "P1", StoreID: "S2"},
		{ProductID: "P2", StoreID: "S1"},
	}

	got := filterStores(records, []string{"S1"})
	if len(got) != 2 || got[0].ProductID != "P1" || got[1].ProductID != "P2" {
		t.Fatalf("unexpected rows %+v", got)
	}
}

func TestSnapshotFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"20240302_stock.csv", "20240301_stock.xlsx", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "archive.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := snapshotFiles(dir)
	if err != nil {
		t.Fatalf("snapshotFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "20240301_stock.xlsx"),
		filepath.Join(dir, "20240302_stock.csv"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshotFiles = %v, want %v", got, want)
	}

	if _, err := snapshotFiles(t.TempDir()); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
