// Package invoice exposes the operations on the invoice store: creating and
// editing drafts, finalizing, payment tracking, deletion, listing and PDF
// rendering.
//
// Every index-affecting operation runs through the Coordinator, which holds
// the store-wide lease while the record is written and the index rebuilt. The
// lifecycle rules (draft -> final, final records immutable) are checked under
// the same lease against the record as it is on disk.
//
// Read-only operations (Get, List) take no lock. Render takes no store lock
// either; it serializes on the invoice's build directory.
package invoice

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"invoicetools/internal/logger"
	"invoicetools/internal/metrics"
	"invoicetools/internal/render"
	"invoicetools/internal/sequence"
	"invoicetools/internal/storage"
	"invoicetools/pkg/models"
)

// DefaultSeparator joins year and counter in document numbers.
const DefaultSeparator = "-"

// Renderer produces a PDF for a persisted invoice.
type Renderer interface {
	Render(ctx context.Context, inv *models.Invoice) (*render.Result, error)
}

// Options configures a Service.
type Options struct {
	// EnableWrites must be true for any operation that changes state.
	EnableWrites bool

	// Separator is placed between year and counter. Empty is allowed.
	Separator string

	// Now is the clock used for the document number year.
	Now func() time.Time
}

// MutationResult is returned by create and update operations.
type MutationResult struct {
	Invoice     *models.Invoice `json:"invoice"`
	InvoicePath string          `json:"invoice_path"`
	IndexPath   string          `json:"index_path"`
}

// DeleteResult is returned by DeleteDraft.
type DeleteResult struct {
	DeletedID   string `json:"deleted_invoice_id"`
	DeletedPath string `json:"deleted_path"`
	IndexPath   string `json:"index_path"`
}

// NumberResult is returned by GenerateNumber.
type NumberResult struct {
	DocumentNumber string `json:"document_number"`
	SequencePath   string `json:"sequence_path"`
}

// BatchResult is the outcome of rendering one invoice in RenderMany.
type BatchResult struct {
	InvoiceID string         `json:"invoice_id"`
	Result    *render.Result `json:"result,omitempty"`
	Err       error          `json:"-"`
	Error     string         `json:"error,omitempty"`
	Kind      string         `json:"kind,omitempty"`
}

// Service implements the invoice operations.
type Service struct {
	store    *storage.FileStore
	seq      *sequence.Generator
	coord    *Coordinator
	renderer Renderer
	metrics  *metrics.Metrics
	opts     Options
	log      zerolog.Logger
}

// NewService wires the service from its collaborators.
func NewService(store *storage.FileStore, seq *sequence.Generator, coord *Coordinator, renderer Renderer, m *metrics.Metrics, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:    store,
		seq:      seq,
		coord:    coord,
		renderer: renderer,
		metrics:  m,
		opts:     opts,
		log:      logger.WithComponent("invoice"),
	}
}

func (s *Service) requireWrites() error {
	if !s.opts.EnableWrites {
		return ErrWritesDisabled
	}
	return nil
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", models.NewValidationError("invoice_id", nil, "is required")
	}
	return id, storage.ValidateID(id)
}

func (s *Service) mutationResult(inv *models.Invoice) *MutationResult {
	path, _ := s.store.InvoicePath(inv.ID)
	return &MutationResult{
		Invoice:     inv,
		InvoicePath: path,
		IndexPath:   s.store.IndexPath(),
	}
}

// Get loads one invoice.
func (s *Service) Get(id string) (*models.Invoice, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	inv, err := s.store.Load(id)
	if err != nil {
		return nil, wrapOp("get", id, err)
	}
	return inv, nil
}

// Records loads every invoice file, ordered by document number. Drafts are
// skipped unless includeDrafts is set.
func (s *Service) Records(includeDrafts bool) ([]*models.Invoice, error) {
	ids, err := s.store.ListIDs()
	if err != nil {
		return nil, wrapOp("records", "", err)
	}

	out := make([]*models.Invoice, 0, len(ids))
	for _, id := range ids {
		inv, err := s.store.Load(id)
		if err != nil {
			return nil, wrapOp("records", id, err)
		}
		if inv.Status == models.StatusDraft && !includeDrafts {
			continue
		}
		out = append(out, inv)
	}
	slices.SortStableFunc(out, func(a, b *models.Invoice) int {
		return cmp.Or(cmp.Compare(a.DocumentNumber, b.DocumentNumber), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// Create persists input as a new draft with a freshly minted id and number.
// Input is validated before the number is drawn so rejected input never
// consumes a number.
func (s *Service) Create(ctx context.Context, input models.Invoice) (*MutationResult, error) {
	if err := s.requireWrites(); err != nil {
		return nil, err
	}

	draft, err := PrepareCreate(input, "pending")
	if err != nil {
		return nil, wrapOp("create", "", err)
	}

	err = s.coord.Mutate(ctx, "create", func() error {
		number, err := s.seq.Next(s.opts.Now().Year(), s.opts.Separator)
		if err != nil {
			return err
		}
		s.metrics.IncNumbersIssued()

		draft.ID = number
		draft.DocumentNumber = number
		if s.store.Exists(draft.ID) {
			return ErrAlreadyExists
		}
		return s.store.Save(draft)
	})
	if err != nil {
		return nil, wrapOp("create", draft.ID, err)
	}

	s.log.Info().Str("invoice_id", draft.ID).Msg("Draft invoice created")
	return s.mutationResult(draft), nil
}

// UpdateStatus sets the payment status and, when status is non-nil, the
// lifecycle status.
func (s *Service) UpdateStatus(ctx context.Context, id string, payment models.PaymentStatus, status *models.Status) (*MutationResult, error) {
	if err := s.requireWrites(); err != nil {
		return nil, err
	}
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	var updated *models.Invoice
	err = s.coord.Mutate(ctx, "update_status", func() error {
		current, err := s.store.Load(id)
		if err != nil {
			return err
		}
		updated, err = ApplyStatusUpdate(current, payment, status)
		if err != nil {
			return err
		}
		return s.store.Save(updated)
	})
	if err != nil {
		return nil, wrapOp("update_status", id, err)
	}

	s.log.Info().
		Str("invoice_id", id).
		Str("status", string(updated.Status)).
		Str("payment_status", string(updated.PaymentStatus)).
		Msg("Invoice status updated")
	return s.mutationResult(updated), nil
}

// UpdateDraft replaces the content of a draft.
func (s *Service) UpdateDraft(ctx context.Context, id string, edit models.Invoice) (*MutationResult, error) {
	if err := s.requireWrites(); err != nil {
		return nil, err
	}
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	edit.ID = strings.TrimSpace(edit.ID)

	var updated *models.Invoice
	err = s.coord.Mutate(ctx, "update_draft", func() error {
		current, err := s.store.Load(id)
		if err != nil {
			return err
		}
		updated, err = ApplyDraftEdit(current, id, edit)
		if err != nil {
			return err
		}
		return s.store.Save(updated)
	})
	if err != nil {
		return nil, wrapOp("update_draft", id, err)
	}

	s.log.Info().Str("invoice_id", id).Msg("Draft invoice updated")
	return s.mutationResult(updated), nil
}

// DeleteDraft removes a draft.
func (s *Service) DeleteDraft(ctx context.Context, id string) (*DeleteResult, error) {
	if err := s.requireWrites(); err != nil {
		return nil, err
	}
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	err = s.coord.Mutate(ctx, "delete_draft", func() error {
		current, err := s.store.Load(id)
		if err != nil {
			return err
		}
		if err := CheckDelete(current); err != nil {
			return err
		}
		return s.store.Delete(id)
	})
	if err != nil {
		return nil, wrapOp("delete_draft", id, err)
	}

	path, _ := s.store.InvoicePath(id)
	s.log.Info().Str("invoice_id", id).Msg("Draft invoice deleted")
	return &DeleteResult{DeletedID: id, DeletedPath: path, IndexPath: s.store.IndexPath()}, nil
}

// GenerateNumber draws the next document number without creating an invoice.
// A nil separator uses the configured one.
func (s *Service) GenerateNumber(ctx context.Context, separator *string) (*NumberResult, error) {
	if err := s.requireWrites(); err != nil {
		return nil, err
	}
	sep := s.opts.Separator
	if separator != nil {
		sep = *separator
	}

	var number string
	err := s.coord.Exclusive(ctx, "generate_number", func() error {
		var err error
		number, err = s.seq.Next(s.opts.Now().Year(), sep)
		return err
	})
	if err != nil {
		return nil, wrapOp("generate_number", "", err)
	}
	s.metrics.IncNumbersIssued()
	return &NumberResult{DocumentNumber: number, SequencePath: s.store.SequencePath()}, nil
}

// LastIssued returns the last document number issued this year without
// drawing a new one. It is empty before the first number of the year.
func (s *Service) LastIssued() string {
	year := s.opts.Now().Year()
	counter := s.seq.Peek(year)
	if counter == 0 {
		return ""
	}
	return sequence.Format(year, s.opts.Separator, counter)
}

// Reindex rebuilds index.json from the record files.
func (s *Service) Reindex(ctx context.Context) (*models.Index, error) {
	if err := s.requireWrites(); err != nil {
		return nil, err
	}
	var idx *models.Index
	err := s.coord.Exclusive(ctx, "reindex", func() error {
		var err error
		if idx, err = s.store.RebuildIndex(); err != nil {
			return err
		}
		return s.store.SaveIndex(idx)
	})
	s.metrics.ObserveMutation("reindex", err)
	if err != nil {
		return nil, wrapOp("reindex", "", err)
	}
	s.log.Info().Int("count", idx.Count).Msg("Index rebuilt")
	return idx, nil
}

// Render compiles the PDF of a persisted invoice.
func (s *Service) Render(ctx context.Context, id string) (*render.Result, error) {
	if err := s.requireWrites(); err != nil {
		return nil, err
	}
	inv, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	res, err := s.renderer.Render(ctx, inv)
	if err != nil {
		return nil, wrapOp("render", inv.ID, err)
	}
	return res, nil
}

// RenderMany renders several invoices with at most workers in parallel.
// Results keep the order of ids; a failure of one does not stop the others.
func (s *Service) RenderMany(ctx context.Context, ids []string, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		g.Go(func() error {
			res, err := s.Render(gctx, id)
			results[i] = BatchResult{InvoiceID: id, Result: res, Err: err}
			if err != nil {
				results[i].Error = err.Error()
				results[i].Kind = Kind(err)
				s.log.Warn().Err(err).Str("invoice_id", id).Msg("Render failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Template returns an example payload for the given language.
func (s *Service) Template(lang models.Language) models.Invoice {
	if lang != models.LanguageEnglish {
		lang = models.LanguageGerman
	}
	return models.ExampleInvoice(lang)
}
