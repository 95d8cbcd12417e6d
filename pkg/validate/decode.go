package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
)

// DecodeEvent — строгий разбор одного change-event: неизвестные поля и хвост после объекта запрещены.
// Ошибка всегда оборачивает ErrInvalidEvent.
func DecodeEvent(raw []byte) (*domain.ChangeEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var ev domain.ChangeEvent
	if err := dec.Decode(&ev); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrInvalidEvent, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: invalid json: trailing data", ErrInvalidEvent)
	}
	return &ev, nil
}

// ValidateEventFromJSON — DecodeEvent и проверка validator'ом.
func ValidateEventFromJSON(ctx context.Context, validator ports.EventValidator, raw []byte) (*domain.ChangeEvent, error) {
	ev, err := DecodeEvent(raw)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}
