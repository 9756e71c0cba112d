package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"reelsort/internal/logging"
)

func buildTar(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range members {
		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractVideosOnlyTakesVideoMembers(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "batch.tar")
	payload := buildTar(t, map[string]string{
		"season/Show - 01.mkv": "episode one",
		"season/Show - 02.mp4": "episode two",
		"season/readme.nfo":    "not a video",
		"cover.jpg":            "art",
	})
	if err := os.WriteFile(archive, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	n, err := ExtractVideos(context.Background(), archive, dest, logging.NewNop())
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 extracted members, got %d", n)
	}

	// Members are flattened to basenames.
	for _, name := range []string{"Show - 01.mkv", "Show - 02.mp4"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "readme.nfo")); !os.IsNotExist(err) {
		t.Error("non-video member must not be extracted")
	}
}

func TestExtractVideosGzip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "batch.tar.gz")
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(buildTar(t, map[string]string{"movie.mkv": "feature"})); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(archive, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := ExtractVideos(context.Background(), archive, dir, logging.NewNop())
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 extracted member, got %d", n)
	}
	got, err := os.ReadFile(filepath.Join(dir, "movie.mkv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "feature" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestExtractVideosNeutralizesTraversalNames(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar")
	payload := buildTar(t, map[string]string{"../../escape.mkv": "evil"})
	if err := os.WriteFile(archive, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	n, err := ExtractVideos(context.Background(), archive, dest, logging.NewNop())
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the member flattened and extracted, got %d", n)
	}
	if _, err := os.Stat(filepath.Join(dest, "escape.mkv")); err != nil {
		t.Fatalf("member must land inside dest: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.mkv")); !os.IsNotExist(err) {
		t.Fatal("member must not escape dest")
	}
}
