package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerInfoRegistered(t *testing.T) {
	if SwaggerInfo == nil || SwaggerInfo.Title == "" {
		t.Fatal("swagger info not initialized")
	}

	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var parsed struct {
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("swagger doc is not valid JSON: %v", err)
	}
	for _, path := range []string{"/health", "/api/assets", "/api/analysis/{symbol}", "/api/analysis/{symbol}/export"} {
		if _, ok := parsed.Paths[path]; !ok {
			t.Fatalf("missing path %s", path)
		}
	}
}
