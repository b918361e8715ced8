package cleanschema

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateCleanRequest_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"records":[
			{"raw_text":"Running fast!"},
			{"raw_text":"running, FAST"},
			{"raw_text":"   "}
		]
	}`)

	request, err := ValidateCleanRequest(payload, 0)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}

	if len(request.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(request.Records))
	}
	if request.Records[0].RawText != "Running fast!" {
		t.Fatalf("unexpected raw_text: %q", request.Records[0].RawText)
	}
	if request.Records[2].RawText != "   " {
		t.Fatalf("expected whitespace-only raw_text to survive, got %q", request.Records[2].RawText)
	}
}

func TestValidateCleanRequest_MissingRecords(t *testing.T) {
	payload := json.RawMessage(`{}`)

	_, err := ValidateCleanRequest(payload, 0)
	if err == nil {
		t.Fatalf("expected validation to fail for missing records")
	}
}

func TestValidateCleanRequest_EmptyRecordsArray(t *testing.T) {
	payload := json.RawMessage(`{"records":[]}`)

	_, err := ValidateCleanRequest(payload, 0)
	if err == nil {
		t.Fatalf("expected validation to fail for empty records array")
	}
}

func TestValidateCleanRequest_EmptyRawText(t *testing.T) {
	payload := json.RawMessage(`{"records":[{"raw_text":""}]}`)

	_, err := ValidateCleanRequest(payload, 0)
	if err == nil {
		t.Fatalf("expected validation to fail for empty raw_text")
	}
}

func TestValidateCleanRequest_UnknownField(t *testing.T) {
	payload := json.RawMessage(`{"records":[{"raw_text":"ok","key":"smuggled"}]}`)

	_, err := ValidateCleanRequest(payload, 0)
	if err == nil {
		t.Fatalf("expected validation to fail for unknown record field")
	}
}

func TestValidateCleanRequest_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`{"records":[{"raw_text":"ok"}]} garbage`)

	_, err := ValidateCleanRequest(payload, 0)
	if err == nil {
		t.Fatalf("expected validation to fail for trailing content")
	}
}

func TestValidateCleanRequest_RecordCap(t *testing.T) {
	payload := json.RawMessage(`{
		"records":[
			{"raw_text":"one"},
			{"raw_text":"two"},
			{"raw_text":"three"}
		]
	}`)

	_, err := ValidateCleanRequest(payload, 2)
	if err == nil {
		t.Fatalf("expected validation to fail above the record cap")
	}
	if !errors.Is(err, ErrTooManyRecords) {
		t.Fatalf("expected ErrTooManyRecords, got: %v", err)
	}

	if _, err := ValidateCleanRequest(payload, 3); err != nil {
		t.Fatalf("expected payload at the cap to be valid, got error: %v", err)
	}
}
