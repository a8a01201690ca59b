package repository

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlink/backend/internal/apperr"
)

// listCursor is the keyset position of the last row of a page. The
// wire form is base64url of the JSON object; clients treat it as
// opaque.
type listCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

func encodeCursor(createdAt time.Time, id string) string {
	payload, _ := json.Marshal(listCursor{CreatedAt: createdAt.UTC(), ID: id})
	return base64.URLEncoding.EncodeToString(payload)
}

func decodeCursor(raw string) (listCursor, error) {
	var zero listCursor

	payload, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return zero, apperr.InvariantViolation("invalid cursor")
	}

	var fields struct {
		CreatedAt *time.Time `json:"created_at"`
		ID        *string    `json:"id"`
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return zero, apperr.InvariantViolation("invalid cursor")
	}
	if fields.CreatedAt == nil || fields.ID == nil {
		return zero, apperr.InvariantViolation("invalid cursor")
	}
	if _, err := uuid.Parse(*fields.ID); err != nil {
		return zero, apperr.InvariantViolation("invalid cursor")
	}

	return listCursor{CreatedAt: fields.CreatedAt.UTC(), ID: *fields.ID}, nil
}
