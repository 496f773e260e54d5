package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ledgerline/internal/audit"
	"ledgerline/internal/audit/canonical"
	dErrors "ledgerline/pkg/domain-errors"
)

// maxListLimit caps page sizes requested by clients.
const maxListLimit = 500

type appendEventRequest struct {
	Category  string          `json:"category"`
	EventType string          `json:"event_type"`
	RefType   string          `json:"ref_type,omitempty"`
	RefID     string          `json:"ref_id,omitempty"`
	Actor     string          `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RedactPII bool            `json:"redact_pii,omitempty"`
}

var validCategories = map[audit.Category]bool{
	audit.CategoryDataAccess:   true,
	audit.CategoryConfigChange: true,
	audit.CategoryApproval:     true,
	audit.CategoryTransaction:  true,
	audit.CategoryProviderCall: true,
	audit.CategoryErasure:      true,
}

func (r *appendEventRequest) Validate() error {
	if !validCategories[audit.Category(r.Category)] {
		return dErrors.New(dErrors.CodeValidation, "unknown category")
	}
	if r.EventType == "" {
		return dErrors.New(dErrors.CodeValidation, "event_type is required")
	}
	return nil
}

func (r *appendEventRequest) toDraft() (audit.Draft, error) {
	var payload canonical.Object
	if len(r.Payload) > 0 {
		var err error
		payload, err = canonical.ParseObject(r.Payload)
		if err != nil {
			return audit.Draft{}, dErrors.Wrap(err, dErrors.CodeValidation, "payload must be a JSON object")
		}
	}
	return audit.Draft{
		Category:  audit.Category(r.Category),
		EventType: r.EventType,
		RefType:   r.RefType,
		RefID:     r.RefID,
		Actor:     r.Actor,
		Payload:   payload,
		RedactPII: r.RedactPII,
	}, nil
}

type createAnchorRequest struct {
	Period string `json:"period"`
}

func (r *createAnchorRequest) Validate() error {
	if _, _, err := audit.PeriodBounds(r.Period); err != nil {
		return dErrors.New(dErrors.CodeValidation, "period must be YYYY-MM-DD")
	}
	return nil
}

type erasureRequest struct {
	SubjectID string `json:"subject_id"`
}

func (r *erasureRequest) Validate() error {
	if r.SubjectID == "" {
		return dErrors.New(dErrors.CodeValidation, "subject_id is required")
	}
	return nil
}

// parseTimeRange reads optional from/to RFC 3339 query parameters.
func parseTimeRange(r *http.Request) (from, to time.Time, err error) {
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeBadRequest, "from must be RFC 3339")
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeBadRequest, "to must be RFC 3339")
		}
	}
	return from, to, nil
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxListLimit {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500")
	}
	return limit, nil
}
