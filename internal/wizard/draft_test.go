package wizard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Ref Decoding
// ==========================

func TestRefAcceptsBareIDsAndObjects(t *testing.T) {
	var refs []Ref
	err := json.Unmarshal([]byte(`[3, {"id":5,"name":"Lunch"}, 9]`), &refs)

	assert.NoError(t, err)
	assert.Equal(t, []Ref{{ID: 3}, {ID: 5, Name: "Lunch"}, {ID: 9}}, refs)
}

func TestRefRejectsMalformedInput(t *testing.T) {
	var r Ref
	assert.Error(t, json.Unmarshal([]byte(`"lunch"`), &r))
}

// ==========================
// Meaningful-Data Gate
// ==========================

func TestHasMeaningfulData(t *testing.T) {
	tests := []struct {
		name     string
		draft    Draft
		expected bool
	}{
		{
			name:     "empty draft",
			draft:    Draft{},
			expected: false,
		},
		{
			name:     "name alone is not meaningful",
			draft:    Draft{CustomerName: "Omar", Notes: "call first"},
			expected: false,
		},
		{
			name:     "customer selected",
			draft:    Draft{CustomerID: ptr(int64(42))},
			expected: true,
		},
		{
			name:     "phone entered",
			draft:    Draft{CustomerPhone: "0100000000"},
			expected: true,
		},
		{
			name:     "plan chosen",
			draft:    Draft{PlanID: ptr(int64(10))},
			expected: true,
		},
		{
			name:     "start date chosen",
			draft:    Draft{StartDate: "2100-01-04"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.draft.HasMeaningfulData())
		})
	}
}
