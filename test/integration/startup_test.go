package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

// TestStartup_RequestID verifies every response carries a request id and
// that a caller-supplied one is echoed back.
func TestStartup_RequestID(t *testing.T) {
	resp, err := http.Get(apiURL("queries"))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	resp.Body.Close()
	if _, err := uuid.Parse(resp.Header.Get("X-Request-ID")); err != nil {
		t.Errorf("X-Request-ID = %q: %v", resp.Header.Get("X-Request-ID"), err)
	}

	req, _ := http.NewRequest(http.MethodGet, apiURL("queries"), nil)
	req.Header.Set("X-Request-ID", "trace-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "trace-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

// TestStartup_CRUDAlongsideCatalogs verifies queries created through the API
// coexist with the ones loaded from the queries directory.
func TestStartup_CRUDAlongsideCatalogs(t *testing.T) {
	id := uniqueID("startup-crud")
	defer deleteQuery(t, id)
	if code, result := doJSON(t, http.MethodPost, "queries?queryId="+id, map[string]string{"query": "tag:x"}); code != http.StatusOK {
		t.Fatalf("create: %d %v", code, result)
	}

	_, result := doJSON(t, http.MethodGet, "queries", nil)
	queries, _ := result["queries"].([]interface{})
	want := 1
	if inProcess {
		want = 4
	}
	if len(queries) < want {
		t.Errorf("expected at least %d queries, got %d", want, len(queries))
	}
}
