package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

type fakeSource struct {
	files   []*File
	content map[string][]byte
}

func (f *fakeSource) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	return f.files, nil
}

func (f *fakeSource) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	data, ok := f.content[fileID]
	if !ok {
		return fmt.Errorf("no file %s", fileID)
	}
	_, err := w.Write(data)
	return err
}

func xlsxBytes(t *testing.T) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	if err := wb.SetSheetRow("Sheet1", "A1", &[]interface{}{"sku", "toko", "stok"}); err != nil {
		t.Fatalf("set header: %v", err)
	}
	if err := wb.SetSheetRow("Sheet1", "A2", &[]interface{}{"P1", "North", 7}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestDownloadSnapshots(t *testing.T) {
	src := &fakeSource{
		files: []*File{
			{ID: "2", Name: "20240502.xlsx"},
			{ID: "1", Name: "20240501.csv"},
			{ID: "3", Name: "notes.pdf"},
		},
		content: map[string][]byte{
			"1": []byte("sku,toko\nP1,North\n"),
			"2": xlsxBytes(t),
		},
	}
	dir := t.TempDir()

	paths, err := (&Downloader{source: src}).DownloadSnapshots(context.Background(), DownloadOptions{DownloadDir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(paths) != 2 || filepath.Base(paths[0]) != "20240501.csv" || filepath.Base(paths[1]) != "20240502.csv" {
		t.Fatalf("unexpected paths %v", paths)
	}

	data, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatalf("read converted file: %v", err)
	}
	if !strings.Contains(string(data), "P1,North,7") {
		t.Fatalf("unexpected converted content %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "20240502.xlsx")); !os.IsNotExist(err) {
		t.Fatal("expected workbook to be removed after conversion")
	}
}

func TestDownloadSnapshotsErrors(t *testing.T) {
	d := &Downloader{source: &fakeSource{files: []*File{{ID: "missing", Name: "a.csv"}}}}

	if _, err := d.DownloadSnapshots(context.Background(), DownloadOptions{}); err == nil {
		t.Fatal("expected error without download dir")
	}
	if _, err := d.DownloadSnapshots(context.Background(), DownloadOptions{DownloadDir: t.TempDir()}); err == nil {
		t.Fatal("expected download failure to surface")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.DownloadSnapshots(ctx, DownloadOptions{DownloadDir: t.TempDir()}); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
