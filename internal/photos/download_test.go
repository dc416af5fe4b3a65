package photos_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photosync/internal/logging"
	"photosync/internal/photos"
)

func TestDownloadURLByMediaClass(t *testing.T) {
	cases := []struct {
		mime   string
		suffix string
		ok     bool
	}{
		{"image/jpeg", "=d", true},
		{"image/png", "=d", true},
		{"video/mp4", "=dv", true},
		{"application/pdf", "", false},
	}
	for _, tc := range cases {
		url, ok := photos.DownloadURL(photos.Item{MimeType: tc.mime, BaseURL: "https://cdn/item"})
		if ok != tc.ok {
			t.Fatalf("%s: ok = %v, want %v", tc.mime, ok, tc.ok)
		}
		if ok && !strings.HasSuffix(url, tc.suffix) {
			t.Fatalf("%s: url %q does not end in %q", tc.mime, url, tc.suffix)
		}
	}
}

func TestDownloadWritesFileAndRestoresTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	item := photos.Item{
		Filename:     "capture.jpg",
		MimeType:     "image/jpeg",
		BaseURL:      server.URL + "/capture",
		CreationTime: "2020-01-01T00:00:00Z",
	}
	if ok := photos.Download(context.Background(), plainGetter{}, item, dir, logging.NewNop()); !ok {
		t.Fatal("Download returned false")
	}

	path := filepath.Join(dir, "capture.jpg")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("file content = %q", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if !info.ModTime().UTC().Equal(want) {
		t.Fatalf("mtime = %v, want %v", info.ModTime().UTC(), want)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("staging dir has %d entries, want only the final file", len(entries))
	}
}

func TestDownloadMalformedTimestampIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp4-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	item := photos.Item{
		Filename:     "clip.mp4",
		MimeType:     "video/mp4",
		BaseURL:      server.URL + "/clip",
		CreationTime: "not-a-timestamp",
	}
	if ok := photos.Download(context.Background(), plainGetter{}, item, dir, logging.NewNop()); !ok {
		t.Fatal("Download returned false")
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.mp4")); err != nil {
		t.Fatalf("expected clip.mp4 to exist: %v", err)
	}
}

func TestDownloadSkipsUnknownMediaType(t *testing.T) {
	dir := t.TempDir()
	item := photos.Item{Filename: "doc.pdf", MimeType: "application/pdf", BaseURL: "https://cdn/doc"}
	if ok := photos.Download(context.Background(), plainGetter{}, item, dir, logging.NewNop()); ok {
		t.Fatal("expected unknown media type to be skipped")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("staging dir has %d entries, want 0", len(entries))
	}
}

func TestDownloadServerErrorReturnsFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	item := photos.Item{Filename: "gone.jpg", MimeType: "image/jpeg", BaseURL: server.URL + "/gone"}
	if ok := photos.Download(context.Background(), plainGetter{}, item, dir, logging.NewNop()); ok {
		t.Fatal("expected failure for 404 response")
	}
	if _, err := os.Stat(filepath.Join(dir, "gone.jpg")); !os.IsNotExist(err) {
		t.Fatal("failed download must not leave a file behind")
	}
}
