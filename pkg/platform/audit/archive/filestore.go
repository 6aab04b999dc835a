package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"abcretail/internal/platform/blob"
	audit "abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/sentinel"
)

// maxNameAttempts bounds suffixing when two archives land in the same second.
const maxNameAttempts = 10

// File describes a stored archive file.
type File struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// FileStore keeps archive files in blob storage. Files are immutable once
// written.
type FileStore struct {
	blobs blob.Store
}

func NewFileStore(blobs blob.Store) *FileStore {
	return &FileStore{blobs: blobs}
}

// Save encodes records and writes them as a new file named for at. A name
// already taken gets a numeric suffix.
func (s *FileStore) Save(ctx context.Context, enc Encoder, records []audit.Record, at time.Time) (File, error) {
	var buf bytes.Buffer
	if err := enc.Encode(&buf, records); err != nil {
		return File{}, fmt.Errorf("encode archive: %w", err)
	}
	base := FileName(at, enc.Ext())
	name := base
	for attempt := 1; ; attempt++ {
		f, err := s.WriteFile(ctx, name, buf.Bytes(), enc.ContentType())
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, sentinel.ErrAlreadyExists) || attempt >= maxNameAttempts {
			return File{}, err
		}
		ext := "." + enc.Ext()
		name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), attempt, ext)
	}
}

// WriteFile stores body as name. It fails with sentinel.ErrAlreadyExists if
// the name is taken.
func (s *FileStore) WriteFile(ctx context.Context, name string, body []byte, contentType string) (File, error) {
	key, err := keyFor(name)
	if err != nil {
		return File{}, err
	}
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(body), blob.PutOptions{ContentType: contentType})
	if err != nil {
		return File{}, fmt.Errorf("write archive %s: %w", name, err)
	}
	return fileOf(info), nil
}

// ListFiles returns archive files, newest first.
func (s *FileStore) ListFiles(ctx context.Context) ([]File, error) {
	infos, err := s.blobs.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	out := make([]File, 0, len(infos))
	for _, info := range infos {
		out = append(out, fileOf(info))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// ReadFile opens the archive called name. The caller closes the reader.
func (s *FileStore) ReadFile(ctx context.Context, name string) (File, io.ReadCloser, error) {
	key, err := keyFor(name)
	if err != nil {
		return File{}, nil, err
	}
	info, rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return File{}, nil, fmt.Errorf("read archive %s: %w", name, err)
	}
	return fileOf(info), rc, nil
}

func keyFor(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: archive name %q", blob.ErrInvalidKey, name)
	}
	return blob.CleanKey(Prefix + name)
}

func fileOf(info blob.Info) File {
	return File{
		Name:         strings.TrimPrefix(info.Key, Prefix),
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}
}
