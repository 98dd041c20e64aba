package database

import "testing"

func Test_textArray(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    string
	}{
		{name: "nil encodes as empty array", answers: nil, want: "{}"},
		{name: "empty", answers: []string{}, want: "{}"},
		{name: "values", answers: []string{"b", "2"}, want: `{"b","2"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := textArray(tt.answers).Value()
			if err != nil {
				t.Fatalf("Value() failed: %v", err)
			}
			got, ok := v.(string)
			if !ok {
				t.Fatalf("Value() = %v (%T); want a string, never NULL", v, v)
			}
			if got != tt.want {
				t.Errorf("Value() = %q; want %q", got, tt.want)
			}
		})
	}
}
