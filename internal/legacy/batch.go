// =============================================================================
// Legacy Mongo Migrator - Batch Readers
// =============================================================================
//
// This module reads one finite input batch of legacy records. Two formats are
// supported, selected by file extension:
//
//   .json         An array of flat objects, as produced by the DBF export
//                 step. Field order inside each object is preserved.
//   .xlsx         A legacy export worksheet: the first row holds the field
//                 codes, every following non-empty row is one record. All
//                 cell values arrive as strings and flow through coercion.
//
// A batch that cannot be parsed as its expected structure is MalformedInput:
// the reader returns ErrMalformedBatch (wrapped with position detail) and the
// caller aborts before any writes happen. Individual field values are never
// a parse failure - bad scalars are the coercion layer's problem.
//
// =============================================================================

package legacy

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ErrMalformedBatch marks an input file that does not have the expected
// record/array structure. Callers match it with errors.Is.
var ErrMalformedBatch = errors.New("malformed input batch")

// Batch is one finite, ordered set of legacy records read from a single file.
type Batch struct {
	// Path is the file the batch was read from.
	Path string

	// Records holds the records in source order.
	Records []Record
}

// ReadBatch reads a batch file, dispatching on the file extension.
func ReadBatch(path string) (*Batch, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return readJSONBatch(path)
	case ".xlsx":
		return readXLSXBatch(path)
	default:
		return nil, errors.Wrapf(ErrMalformedBatch, "%s: unsupported batch format %q", path, filepath.Ext(path))
	}
}

// =============================================================================
// JSON BATCHES
// =============================================================================

// readJSONBatch decodes an array of flat objects token by token so that the
// field order of each record survives. encoding/json maps would lose it.
func readJSONBatch(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open batch file")
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, errors.Wrapf(ErrMalformedBatch, "%s: %v", path, err)
	}

	batch := &Batch{Path: path}
	for dec.More() {
		rec, err := decodeRecord(dec)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedBatch, "%s: record %d: %v", path, len(batch.Records)+1, err)
		}
		batch.Records = append(batch.Records, rec)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, errors.Wrapf(ErrMalformedBatch, "%s: %v", path, err)
	}
	return batch, nil
}

// decodeRecord reads a single flat JSON object into an ordered Record.
// Nested arrays or objects are a structural error: legacy exports are flat.
func decodeRecord(dec *json.Decoder) (Record, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return Record{}, err
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Record{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Record{}, errors.Errorf("expected field name, got %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return Record{}, err
		}
		value, err := scalarValue(valTok)
		if err != nil {
			return Record{}, errors.Wrapf(err, "field %q", key)
		}
		fields = append(fields, Field{Name: key, Value: value})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return Record{}, err
	}
	return NewRecord(fields), nil
}

// scalarValue converts a decoded JSON token into a raw scalar.
func scalarValue(tok json.Token) (any, error) {
	switch v := tok.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case bool:
		return v, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, errors.Errorf("unreadable number %q", v.String())
		}
		return f, nil
	case json.Delim:
		return nil, errors.Errorf("nested %v value in flat record", v)
	default:
		return nil, errors.Errorf("unsupported value %v", v)
	}
}

// expectDelim consumes one token and checks it is the given delimiter.
func expectDelim(dec *json.Decoder, want rune) error {
	tok, err := dec.Token()
	if err == io.EOF {
		return errors.Errorf("unexpected end of file, wanted %q", want)
	}
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || rune(d) != want {
		return errors.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// =============================================================================
// XLSX BATCHES
// =============================================================================

// readXLSXBatch reads the first worksheet of a legacy export workbook.
func readXLSXBatch(path string) (*Batch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedBatch, "%s: %v", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Wrapf(ErrMalformedBatch, "%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedBatch, "%s: %v", path, err)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(ErrMalformedBatch, "%s: sheet %q has no header row", path, sheets[0])
	}

	headers := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		headers = append(headers, strings.TrimSpace(h))
	}

	batch := &Batch{Path: path}
	for _, row := range rows[1:] {
		if isRowEmpty(row) {
			continue
		}
		fields := make([]Field, 0, len(headers))
		for i, name := range headers {
			if name == "" {
				continue
			}
			var value any
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				value = row[i]
			}
			fields = append(fields, Field{Name: name, Value: value})
		}
		batch.Records = append(batch.Records, NewRecord(fields))
	}
	return batch, nil
}

// isRowEmpty reports whether every cell in the row is blank.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
