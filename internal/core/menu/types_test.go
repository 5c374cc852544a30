package menu

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestItemJSONImageURLs(t *testing.T) {
	tests := []struct {
		name     string
		urls     []string
		want     string
		enriched bool
	}{
		{name: "not enriched", urls: nil, want: "", enriched: false},
		{name: "enrichment failed", urls: []string{}, want: `"imageUrls":[]`, enriched: true},
		{name: "enriched", urls: []string{"https://img.example/a"}, want: `"imageUrls":["https://img.example/a"]`, enriched: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(Item{Name: "Pad Thai", ImageURLs: tt.urls})
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if tt.want == "" {
				if strings.Contains(string(data), "imageUrls") {
					t.Fatalf("imageUrls should be absent: %s", data)
				}
			} else if !strings.Contains(string(data), tt.want) {
				t.Fatalf("got %s, want it to contain %s", data, tt.want)
			}

			var back Item
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if back.Enriched() != tt.enriched {
				t.Errorf("Enriched() = %v after reload, want %v", back.Enriched(), tt.enriched)
			}
		})
	}
}
