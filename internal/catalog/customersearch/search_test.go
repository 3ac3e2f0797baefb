package customersearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Hit Parsing
// ==========================

func TestParseHits(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]interface{}
		expected []Hit
	}{
		{
			name:     "missing hits envelope",
			response: map[string]interface{}{},
			expected: []Hit{},
		},
		{
			name: "well formed hits",
			response: map[string]interface{}{
				"hits": map[string]interface{}{
					"hits": []interface{}{
						map[string]interface{}{
							"_source": map[string]interface{}{
								"id":    float64(12),
								"name":  "Mona Adel",
								"phone": "0100000000",
								"email": "mona@example.com",
							},
						},
					},
				},
			},
			expected: []Hit{{ID: 12, Name: "Mona Adel", Phone: "0100000000", Email: "mona@example.com"}},
		},
		{
			name: "malformed entries skipped",
			response: map[string]interface{}{
				"hits": map[string]interface{}{
					"hits": []interface{}{
						"not an object",
						map[string]interface{}{"noSource": true},
						map[string]interface{}{
							"_source": map[string]interface{}{"id": float64(3), "name": "Ali"},
						},
					},
				},
			},
			expected: []Hit{{ID: 3, Name: "Ali"}},
		},
		{
			name: "entirely empty sources dropped",
			response: map[string]interface{}{
				"hits": map[string]interface{}{
					"hits": []interface{}{
						map[string]interface{}{"_source": map[string]interface{}{}},
					},
				},
			},
			expected: []Hit{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseHits(tt.response))
		})
	}
}
