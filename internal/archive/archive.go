// Package archive extracts video members from tar drops so they re-enter
// the inbox as ordinary files on the next pass.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// videoExts are the member extensions worth extracting. Everything else in
// an archive (nfo files, samples, artwork) is skipped.
var videoExts = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mkv":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".mts":  true,
	".m2ts": true,
	".iso":  true,
}

// ExtractVideos unrolls the video members of tarPath into destDir, flattened
// to their basenames. Members with traversal names are rejected. Returns how
// many files were written.
func ExtractVideos(ctx context.Context, tarPath, destDir string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	file, err := os.Open(tarPath)
	if err != nil {
		return 0, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	lowered := strings.ToLower(tarPath)
	if strings.HasSuffix(lowered, ".tar.gz") || strings.HasSuffix(lowered, ".tgz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return 0, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	extracted := 0
	tr := tar.NewReader(reader)
	for {
		if err := ctx.Err(); err != nil {
			return extracted, err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return extracted, fmt.Errorf("read archive member: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.Base(filepath.Clean(header.Name))
		if name == "." || name == ".." || name == "/" {
			continue
		}
		if !videoExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		target := filepath.Join(destDir, name)
		if err := writeMember(target, tr); err != nil {
			return extracted, fmt.Errorf("extract %s: %w", name, err)
		}
		logger.Info("extracted archive member",
			slog.String("archive", filepath.Base(tarPath)),
			slog.String("file", name))
		extracted++
	}
	return extracted, nil
}

func writeMember(target string, r io.Reader) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(target)
		return err
	}
	return out.Close()
}
