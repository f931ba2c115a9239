package agents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/metrics"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/logger"
)

const annotationFilePath = "file_path"

// ExtractFileIDs collects the ids of files the agent generated: image file
// parts and file_path annotations on text parts. Items without either are
// skipped. Ids come back once each, in first-seen order.
func ExtractFileIDs(items []ResponseItem) []string {
	seen := make(map[string]struct{})
	var ids []string

	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, item := range items {
		for _, c := range item.Content {
			if c.ImageFile != nil {
				add(c.ImageFile.FileID)
			}
			if c.Text == nil {
				continue
			}
			for _, a := range c.Text.Annotations {
				add(annotationFileID(a))
			}
		}
	}

	return ids
}

// annotations arrive as decoded JSON objects
func annotationFileID(annotation any) string {
	m, ok := annotation.(map[string]any)
	if !ok {
		return ""
	}
	if kind, _ := m["type"].(string); kind != annotationFilePath {
		return ""
	}
	ref, ok := m[annotationFilePath].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := ref["file_id"].(string)
	return id
}

// DownloadedFile describes a file written to disk.
type DownloadedFile struct {
	FileID string
	Name   string
	Path   string
	Bytes  int64
}

// DownloadFile writes a generated file into dir and checks that the local
// size matches the size the service reported. On any failure nothing is
// left behind.
func (s *Service) DownloadFile(ctx context.Context, fileID, dir string) (*DownloadedFile, error) {
	log := logger.For(logger.FILES).With().Str("file_id", fileID).Logger()

	meta, err := s.api.GetFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	out, name, err := createUnique(dir, localName(meta.FileName, fileID), fileID)
	if err != nil {
		return nil, err
	}
	dst := out.Name()

	n, err := s.copyContent(ctx, fileID, out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && meta.Bytes > 0 && n != int64(meta.Bytes) {
		err = fmt.Errorf("%w: file %s has %d bytes locally, service reported %d", ErrSizeMismatch, fileID, n, meta.Bytes)
	}
	if err != nil {
		_ = os.Remove(dst)
		log.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}

	if meta.Bytes == 0 {
		log.Warn().Int64("bytes", n).Msg("Service did not report a file size, skipping size check")
	}

	metrics.FilesDownloaded.Inc()
	metrics.BytesDownloaded.Add(float64(n))
	log.Info().Str("path", dst).Int64("bytes", n).Msg("Downloaded file")

	return &DownloadedFile{FileID: fileID, Name: name, Path: dst, Bytes: n}, nil
}

func (s *Service) copyContent(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	content, err := s.api.GetFileContent(ctx, fileID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch content of %s: %w", fileID, err)
	}
	defer content.Close()

	n, err := io.Copy(w, content)
	if err != nil {
		return n, fmt.Errorf("failed to write content of %s: %w", fileID, err)
	}
	return n, nil
}

// FileContent is a generated file opened for streaming.
type FileContent struct {
	FileID string
	Name   string
	// Bytes is the size the service reported, 0 when unknown
	Bytes int64
	Body  io.ReadCloser
}

// OpenFile opens a generated file for streaming. The caller closes Body.
func (s *Service) OpenFile(ctx context.Context, fileID string) (*FileContent, error) {
	meta, err := s.api.GetFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}

	content, err := s.api.GetFileContent(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content of %s: %w", fileID, err)
	}

	return &FileContent{
		FileID: fileID,
		Name:   localName(meta.FileName, fileID),
		Bytes:  int64(meta.Bytes),
		Body:   content,
	}, nil
}

// DownloadAll downloads every file referenced by items. It keeps going past
// failures and returns what it managed along with the first error.
func (s *Service) DownloadAll(ctx context.Context, items []ResponseItem, dir string) ([]*DownloadedFile, error) {
	var files []*DownloadedFile
	var firstErr error

	for _, id := range ExtractFileIDs(items) {
		f, err := s.DownloadFile(ctx, id, dir)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		files = append(files, f)
	}

	return files, firstErr
}

// localName turns a remote file name such as "/mnt/data/chart.png" into a
// safe base name, falling back to the file id.
func localName(remote, fileID string) string {
	name := path.Base(strings.ReplaceAll(remote, "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return fileID
	}
	return name
}

func createUnique(dir, name, fileID string) (*os.File, string, error) {
	candidates := []string{name}
	if name != fileID {
		candidates = append(candidates, fileID+"_"+name)
	}

	for _, candidate := range candidates {
		f, err := os.OpenFile(filepath.Join(dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create %s: %w", candidate, err)
		}
	}

	return nil, "", fmt.Errorf("failed to create local file for %s: %w", fileID, os.ErrExist)
}
