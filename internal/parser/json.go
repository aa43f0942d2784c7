package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/PaesslerAG/jsonpath"

	"github.com/ThiagoRGoveia/building-metadata/internal/models"
)

var errInvalidUTF8 = errors.New("invalid UTF-8")

// Record is one parsed per-building metadata document.
type Record = map[string]any

// projectedFields lists the projected keys in output order with the JSONPath
// used to look each one up.
var projectedFields = []struct {
	name string
	path string
}{
	{"schwerp_x", `$["schwerp_x"]`},
	{"schwerp_y", `$["schwerp_y"]`},
	{"address", `$["address"]`},
	{"filename", `$["filename"]`},
}

// LoadRecord reads the whole file at filePath and parses it as a JSON object.
// Numbers are kept as json.Number so their literal text survives re-encoding.
func LoadRecord(filePath string) (Record, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, &models.AppError{Path: filePath, Message: "Failed to open file", Err: err}
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, &models.AppError{Path: filePath, Message: "Failed to read file", Err: err}
	}

	return ParseRecord(filePath, content)
}

// ParseRecord parses content as a single JSON object. filePath is only used
// for error reporting.
func ParseRecord(filePath string, content []byte) (Record, error) {
	// encoding/json would replace invalid bytes with U+FFFD instead of failing.
	if !utf8.Valid(content) {
		return nil, &models.AppError{Path: filePath, Message: "Failed to parse JSON", Err: errInvalidUTF8}
	}

	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()

	var document any
	if err := decoder.Decode(&document); err != nil {
		return nil, &models.AppError{Path: filePath, Message: "Failed to parse JSON", Err: err}
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, &models.AppError{Path: filePath, Message: "Failed to parse JSON", Err: fmt.Errorf("unexpected data after top-level value")}
	}

	record, ok := document.(map[string]any)
	if !ok {
		return nil, &models.AppError{Path: filePath, Message: "Failed to parse JSON", Err: models.ErrNotObject}
	}

	return record, nil
}

// ProjectBuilding extracts the four building fields from record. Every field
// is required; a missing one fails the whole projection. A present null is
// copied as is.
func ProjectBuilding(filePath string, record Record) (models.Building, error) {
	values := make([]any, len(projectedFields))
	for i, field := range projectedFields {
		value, err := jsonpath.Get(field.path, record)
		if err != nil {
			return models.Building{}, &models.AppError{
				Path:    filePath,
				Message: fmt.Sprintf("Field %q not found", field.name),
				Err:     fmt.Errorf("%w: %v", models.ErrMissingField, err),
			}
		}
		values[i] = value
	}

	return models.Building{
		SchwerpX: values[0],
		SchwerpY: values[1],
		Address:  values[2],
		Filename: values[3],
	}, nil
}
