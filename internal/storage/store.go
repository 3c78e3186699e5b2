// Package storage keeps invoices as one JSON file per record below a storage
// root and derives the aggregate index from them.
//
// Layout below the root:
//
//	invoices/<id>.json   one record per file
//	index.json           derived summary of all records
//	sequence.json        per-year document number counters
//	.index.lock          advisory lock guarding mutations
//	build/<id>/          scratch directory of the render pipeline
//
// The store performs no locking itself. Mutations must run inside the write
// coordinator's critical section.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"invoicetools/internal/logger"
	"invoicetools/pkg/models"
)

const (
	InvoicesDirName  = "invoices"
	IndexFileName    = "index.json"
	SequenceFileName = "sequence.json"
	LockFileName     = ".index.lock"
	BuildDirName     = "build"

	recordExt = ".json"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)

// FileStore reads and writes invoice files below Root.
type FileStore struct {
	root string
	log  zerolog.Logger
}

// NewFileStore returns a store rooted at root. Directories are created lazily.
func NewFileStore(root string) *FileStore {
	return &FileStore{
		root: root,
		log:  logger.WithComponent("storage"),
	}
}

// Root returns the storage root directory.
func (s *FileStore) Root() string { return s.root }

// IndexPath returns the path of index.json.
func (s *FileStore) IndexPath() string { return filepath.Join(s.root, IndexFileName) }

// SequencePath returns the path of sequence.json.
func (s *FileStore) SequencePath() string { return filepath.Join(s.root, SequenceFileName) }

// LockPath returns the path of the store-wide lock file.
func (s *FileStore) LockPath() string { return filepath.Join(s.root, LockFileName) }

// InvoicesDir returns the directory holding the record files.
func (s *FileStore) InvoicesDir() string { return filepath.Join(s.root, InvoicesDirName) }

// InvoicePath returns the record file path for id.
func (s *FileStore) InvoicePath(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.InvoicesDir(), id+recordExt), nil
}

// BuildDir returns the render scratch directory for id.
func (s *FileStore) BuildDir(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.root, BuildDirName, id), nil
}

// EnsureStructure creates the root and invoices directories.
func (s *FileStore) EnsureStructure() error {
	if err := os.MkdirAll(s.InvoicesDir(), 0o755); err != nil {
		return fmt.Errorf("create storage structure: %w", err)
	}
	return nil
}

// ValidateID rejects ids that are empty or could escape the invoices directory.
func ValidateID(id string) error {
	if !validID.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Exists reports whether a record file is present for id.
func (s *FileStore) Exists(id string) bool {
	path, err := s.InvoicePath(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads and validates one record.
func (s *FileStore) Load(id string) (*models.Invoice, error) {
	path, err := s.InvoicePath(id)
	if err != nil {
		return nil, err
	}
	return s.loadPath(id, path)
}

func (s *FileStore) loadPath(id, path string) (*models.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read invoice %s: %w", id, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var inv models.Invoice
	if err := dec.Decode(&inv); err != nil {
		return nil, &CorruptError{ID: id, Path: path, Err: err}
	}
	if err := inv.Validate(); err != nil {
		return nil, &CorruptError{ID: id, Path: path, Err: err}
	}
	return &inv, nil
}

// Save writes the record wholesale, replacing any previous content.
func (s *FileStore) Save(inv *models.Invoice) error {
	path, err := s.InvoicePath(inv.ID)
	if err != nil {
		return err
	}
	if err := WriteJSON(path, inv); err != nil {
		return fmt.Errorf("save invoice %s: %w", inv.ID, err)
	}
	s.log.Debug().Str("invoice_id", inv.ID).Str("path", path).Msg("Invoice saved")
	return nil
}

// Delete removes the record file. A missing file is not an error.
func (s *FileStore) Delete(id string) error {
	path, err := s.InvoicePath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}
	s.log.Debug().Str("invoice_id", id).Msg("Invoice deleted")
	return nil
}

// ListIDs returns all record ids in lexicographic order.
func (s *FileStore) ListIDs() ([]string, error) {
	entries, err := os.ReadDir(s.InvoicesDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, recordExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// RebuildIndex loads every record and projects it into a fresh index. Any
// record that fails to load aborts the rebuild; no partial index is returned.
func (s *FileStore) RebuildIndex() (*models.Index, error) {
	ids, err := s.ListIDs()
	if err != nil {
		return nil, err
	}

	entries := make([]models.IndexEntry, 0, len(ids))
	for _, id := range ids {
		inv, err := s.Load(id)
		if err != nil {
			return nil, fmt.Errorf("rebuild index: %w", err)
		}
		entries = append(entries, inv.IndexEntry())
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return &models.Index{Count: len(entries), Entries: entries}, nil
}

// SaveIndex replaces index.json as a whole.
func (s *FileStore) SaveIndex(idx *models.Index) error {
	if err := WriteJSON(s.IndexPath(), idx); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	s.log.Debug().Int("count", idx.Count).Msg("Index saved")
	return nil
}

// ReadIndex returns the raw bytes of index.json, or nil if none was written yet.
func (s *FileStore) ReadIndex() ([]byte, error) {
	data, err := os.ReadFile(s.IndexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	return data, nil
}
