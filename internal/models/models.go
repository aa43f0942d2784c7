package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrNotObject    = errors.New("document is not a JSON object")
)

// Building is the projected subset of a per-building metadata record. Field
// order matches the serialized key order.
type Building struct {
	SchwerpX any `json:"schwerp_x"`
	SchwerpY any `json:"schwerp_y"`
	Address  any `json:"address"`
	Filename any `json:"filename"`
}

// Coordinates returns the building centroid. Source data stores it either as a
// JSON number or as a string using a decimal comma.
func (b Building) Coordinates() (float64, float64, error) {
	x, err := parseCoordinate(b.SchwerpX)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid schwerp_x: %w", err)
	}
	y, err := parseCoordinate(b.SchwerpY)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid schwerp_y: %w", err)
	}
	return x, y, nil
}

func (b Building) Name() string {
	return ValueText(b.Filename)
}

func (b Building) Street() string {
	return ValueText(b.Address)
}

func parseCoordinate(v any) (float64, error) {
	switch c := v.(type) {
	case json.Number:
		return c.Float64()
	case float64:
		return c, nil
	case string:
		return strconv.ParseFloat(strings.Replace(strings.TrimSpace(c), ",", ".", 1), 64)
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// ValueText renders a decoded JSON value as plain text for storage.
func ValueText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case json.Number:
		return c.String()
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Sprint(c)
		}
		return string(b)
	}
}

// Aggregate is the document written to the output file.
type Aggregate struct {
	Buildings []Building `json:"buildings"`
}

type FileInfo struct {
	Path string
	Name string
}

type RunRecord struct {
	ID            uuid.UUID
	InputDir      string
	OutputPath    string
	ProcessedAt   time.Time
	Status        string
	Checksum      string
	BuildingCount int
}

type RunSummary struct {
	RunID         uuid.UUID
	OutputPath    string
	FilesScanned  int
	BuildingCount int
	Checksum      string
	Changed       bool
	Published     bool
	Recorded      bool
}

type AppError struct {
	Path    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
