package invoice

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"invoicetools/internal/storage"
	"invoicetools/pkg/models"
)

// List pagination bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Sort keys accepted by List.
const (
	SortIssueDate      = "issue_date"
	SortDueDate        = "due_date"
	SortRecipient      = "recipient"
	SortDocumentNumber = "document_number"
	SortTotal          = "total"
)

const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// ListQuery selects, orders and pages index entries. Zero values mean
// "no filter"; a nil Limit means DefaultListLimit.
type ListQuery struct {
	Status         models.Status        `json:"status,omitempty"`
	PaymentStatus  models.PaymentStatus `json:"payment_status,omitempty"`
	RecipientQuery string               `json:"recipient_query,omitempty"`
	IssueDateFrom  string               `json:"issue_date_from,omitempty"`
	IssueDateTo    string               `json:"issue_date_to,omitempty"`
	SortBy         string               `json:"sort_by,omitempty"`
	Direction      string               `json:"direction,omitempty"`
	Limit          *int                 `json:"limit,omitempty"`
	Offset         int                  `json:"offset,omitempty"`
}

// ListItem is one invoice summary in a list page. Total is passed through
// as stored in the index.
type ListItem struct {
	ID             string               `json:"id"`
	DocumentNumber string               `json:"document_number"`
	Recipient      string               `json:"recipient"`
	IssueDate      string               `json:"issue_date"`
	DueDate        string               `json:"due_date"`
	Currency       string               `json:"currency"`
	Total          json.RawMessage      `json:"total"`
	Status         models.Status        `json:"status"`
	PaymentStatus  models.PaymentStatus `json:"payment_status"`
}

// ListSort echoes the effective ordering.
type ListSort struct {
	By        string `json:"by"`
	Direction string `json:"direction"`
}

// ListResult is one page of List.
type ListResult struct {
	Invoices   []ListItem `json:"invoices"`
	TotalCount int        `json:"total_count"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
	HasMore    bool       `json:"has_more"`
	NextOffset *int       `json:"next_offset"`
	Sort       ListSort   `json:"sort"`
	Filters    ListQuery  `json:"filters"`
}

type rawIndex struct {
	Entries []ListItem `json:"entries"`
}

// List reads index.json and returns the matching page. It takes no lock; a
// concurrent mutation is either fully visible or not at all.
func (s *Service) List(q ListQuery) (*ListResult, error) {
	limit, offset, err := normalizePage(q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	from, err := parseDateFilter("issue_date_from", q.IssueDateFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseDateFilter("issue_date_to", q.IssueDateTo)
	if err != nil {
		return nil, err
	}
	if q.Status != "" && q.Status != models.StatusDraft && q.Status != models.StatusFinal {
		return nil, models.NewValidationError("status", q.Status, "must be 'draft' or 'final'")
	}
	if q.PaymentStatus != "" {
		if err := models.ValidatePaymentStatus(q.PaymentStatus); err != nil {
			return nil, err
		}
	}

	entries, err := s.readIndexEntries()
	if err != nil {
		return nil, wrapOp("list", "", err)
	}

	needle := strings.ToLower(strings.TrimSpace(q.RecipientQuery))
	matched := make([]ListItem, 0, len(entries))
	for _, e := range entries {
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		if q.PaymentStatus != "" && e.PaymentStatus != q.PaymentStatus {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Recipient), needle) {
			continue
		}
		if from != nil || to != nil {
			issued, err := models.ParseDate(e.IssueDate)
			if err != nil {
				continue
			}
			if from != nil && issued.Before(*from) {
				continue
			}
			if to != nil && to.Before(issued) {
				continue
			}
		}
		matched = append(matched, e)
	}

	sortBy, direction := normalizeSort(q.SortBy, q.Direction)
	sortEntries(matched, sortBy, direction)

	page := []ListItem{}
	if offset < len(matched) {
		page = matched[offset:min(offset+limit, len(matched))]
	}

	res := &ListResult{
		Invoices:   page,
		TotalCount: len(matched),
		Limit:      limit,
		Offset:     offset,
		HasMore:    offset+limit < len(matched),
		Sort:       ListSort{By: sortBy, Direction: direction},
		Filters:    q,
	}
	if res.HasMore {
		next := offset + limit
		res.NextOffset = &next
	}
	res.Filters.SortBy, res.Filters.Direction, res.Filters.Limit, res.Filters.Offset = "", "", nil, 0
	return res, nil
}

func (s *Service) readIndexEntries() ([]ListItem, error) {
	data, err := s.store.ReadIndex()
	if err != nil || data == nil {
		return nil, err
	}
	var idx rawIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, &storage.CorruptError{ID: "index", Path: s.store.IndexPath(), Err: err}
	}
	return idx.Entries, nil
}

func normalizePage(limit *int, offset int) (int, int, error) {
	l := DefaultListLimit
	if limit != nil {
		l = *limit
	}
	if l < 1 {
		return 0, 0, models.NewValidationError("limit", l, "must be a positive integer")
	}
	if offset < 0 {
		return 0, 0, models.NewValidationError("offset", offset, "cannot be negative")
	}
	return min(l, MaxListLimit), offset, nil
}

func parseDateFilter(field, value string) (*models.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := models.ParseDate(value)
	if err != nil {
		return nil, models.NewValidationError(field, value, "expected YYYY-MM-DD")
	}
	return &d, nil
}

func normalizeSort(sortBy, direction string) (string, string) {
	switch sortBy {
	case SortIssueDate, SortDueDate, SortRecipient, SortDocumentNumber, SortTotal:
	default:
		sortBy = SortIssueDate
	}
	if direction != DirectionAsc {
		direction = DirectionDesc
	}
	return sortBy, direction
}

// coerceTotal reads a stored total leniently: anything that is not a number
// counts as 0.
func coerceTotal(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n
		}
	}
	return 0
}

// sortEntries orders by the primary key, then document number, then id, all
// in the same direction.
func sortEntries(entries []ListItem, sortBy, direction string) {
	primary := func(a, b ListItem) int {
		switch sortBy {
		case SortDueDate:
			return cmp.Compare(a.DueDate, b.DueDate)
		case SortRecipient:
			return cmp.Compare(strings.ToLower(a.Recipient), strings.ToLower(b.Recipient))
		case SortDocumentNumber:
			return 0
		case SortTotal:
			return cmp.Compare(coerceTotal(a.Total), coerceTotal(b.Total))
		default:
			return cmp.Compare(a.IssueDate, b.IssueDate)
		}
	}

	slices.SortStableFunc(entries, func(a, b ListItem) int {
		c := cmp.Or(
			primary(a, b),
			cmp.Compare(a.DocumentNumber, b.DocumentNumber),
			cmp.Compare(a.ID, b.ID),
		)
		if direction == DirectionDesc {
			return -c
		}
		return c
	})
}
