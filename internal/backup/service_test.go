package backup

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDocumentAcceptsCurrentVersion(t *testing.T) {
	raw, err := json.Marshal(Document{
		Version:    DocumentVersion,
		ExportedAt: time.Now(),
		Customers:  []Party{{Name: "Maria", Document: "123"}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc, err := ParseDocument(raw, 1<<20)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(doc.Customers) != 1 || doc.Customers[0].Name != "Maria" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestParseDocumentRejectsWrongVersion(t *testing.T) {
	raw := []byte(`{"version": 99}`)
	if _, err := ParseDocument(raw, 1<<20); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("err = %v, want ErrInvalidDocument", err)
	}
}

func TestParseDocumentRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseDocument([]byte("{nope"), 1<<20); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("err = %v, want ErrInvalidDocument", err)
	}
}

func TestParseDocumentEnforcesSizeLimit(t *testing.T) {
	raw := []byte(`{"version": 1}`)
	if _, err := ParseDocument(raw, 4); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("err = %v, want ErrInvalidDocument", err)
	}
}

func TestParseDocumentZeroLimitSkipsGuard(t *testing.T) {
	raw := []byte(`{"version": 1}`)
	if _, err := ParseDocument(raw, 0); err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
}
