package cleanschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaName = "clean_request.schema.json"

//go:embed clean_request.schema.json
var cleanRequestSchemaJSON string

// ErrTooManyRecords marks payloads that pass the schema but exceed the
// configured record cap. Callers match it with errors.Is.
var ErrTooManyRecords = errors.New("too many records")

type CleanRequest struct {
	Records []CleanRequestRecord `json:"records"`
}

type CleanRequestRecord struct {
	RawText string `json:"raw_text"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateCleanRequest decodes and validates a clean request payload.
// maxRecords caps the records array; zero or negative means no cap.
// Whitespace-only raw_text values are accepted: they are legal input that
// clusters under the empty key.
func ValidateCleanRequest(payload json.RawMessage, maxRecords int) (*CleanRequest, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var request CleanRequest
	if err := json.Unmarshal(normalized, &request); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if maxRecords > 0 && len(request.Records) > maxRecords {
		return nil, fmt.Errorf("%w: %d exceeds limit %d", ErrTooManyRecords, len(request.Records), maxRecords)
	}

	return &request, nil
}

// loadSchema compiles the embedded schema once per process.
func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchema, compiledSchemaErr = compileSchema()
	})
	return compiledSchema, compiledSchemaErr
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaName, strings.NewReader(cleanRequestSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// decodeStrictJSON parses exactly one JSON value, rejecting empty payloads
// and trailing content.
func decodeStrictJSON(raw []byte) (any, error) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("payload contains trailing content")
	}
	return value, nil
}
