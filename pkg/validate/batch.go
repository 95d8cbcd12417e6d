package validate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Gunvolt24/storefront-sync/internal/ports"
)

// Format — формат входного файла с событиями.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"  // один объект или массив объектов
	FormatJSONL Format = "jsonl" // по событию на строку
)

// DetectFormat — для auto выбирает формат по расширению; неизвестное расширение считается JSON.
func DetectFormat(path string, f Format) Format {
	if f != FormatAuto {
		return f
	}
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return FormatJSONL
	}
	return FormatJSON
}

// Failure — невалидное событие: номер строки JSONL или позиция в массиве, считая с 1.
type Failure struct {
	Pos int
	Err error
}

// Report — итог проверки пачки событий.
type Report struct {
	Valid    int
	Invalid  int
	Failures []Failure
}

func (r Report) String() string {
	return fmt.Sprintf("%d valid / %d invalid", r.Valid, r.Invalid)
}

// batch — общий учёт: валидные события пишутся в w каноническим JSON по одному на строку.
type batch struct {
	ctx       context.Context
	validator ports.EventValidator
	enc       *json.Encoder
	report    Report
}

func (b *batch) add(pos int, raw []byte) error {
	ev, err := ValidateEventFromJSON(b.ctx, b.validator, raw)
	if err != nil {
		b.report.Invalid++
		b.report.Failures = append(b.report.Failures, Failure{Pos: pos, Err: err})
		return nil
	}
	if err := b.enc.Encode(ev); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	b.report.Valid++
	return nil
}

// ValidateStream — проверяет события из r и пишет валидные в w.
// Ошибка возвращается только при сбое чтения или записи и отмене ctx; невалидные события попадают в Report.
func ValidateStream(ctx context.Context, validator ports.EventValidator, r io.Reader, f Format, w io.Writer) (Report, error) {
	b := &batch{ctx: ctx, validator: validator, enc: json.NewEncoder(w)}

	var err error
	switch f {
	case FormatJSONL:
		err = b.jsonl(r)
	case FormatJSON, FormatAuto:
		err = b.json(r)
	default:
		err = fmt.Errorf("unsupported format: %s", f)
	}
	return b.report, err
}

func (b *batch) jsonl(r io.Reader) error {
	br := bufio.NewReader(r)
	for line := 1; ; line++ {
		if err := b.ctx.Err(); err != nil {
			return err
		}
		raw, readErr := br.ReadBytes('\n')
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := b.add(line, raw); err != nil {
				return err
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read line %d: %w", line, readErr)
		}
	}
}

func (b *batch) json(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return b.add(1, raw)
	}
	for i, item := range doc.Array() {
		if err := b.ctx.Err(); err != nil {
			return err
		}
		if err := b.add(i+1, []byte(item.Raw)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFile — ValidateStream по файлу; формат auto определяется по расширению.
func ValidateFile(ctx context.Context, validator ports.EventValidator, path string, f Format, w io.Writer) (Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ValidateStream(ctx, validator, file, DetectFormat(path, f), w)
}
