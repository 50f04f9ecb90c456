package bot

import (
	"reflect"
	"testing"
)

func TestSplitIDList(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"123", []string{"123"}},
		{"123, 456,789", []string{"123", "456", "789"}},
		{" 123 , , 456 ", []string{"123", "456"}},
		{"123,abc,456", []string{"123", "456"}},
		{"", nil},
		{"abc", nil},
	}
	for _, tt := range tests {
		got := splitIDList(tt.raw)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("splitIDList(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestValidBanReason(t *testing.T) {
	valid := []string{
		"",
		"Bad actor report",
		"Bad Actor {type} ({id})",
		"{id}{type}",
	}
	for _, reason := range valid {
		if !validBanReason(reason) {
			t.Fatalf("expected %q to be valid", reason)
		}
	}

	invalid := []string{
		"{id",
		"id}",
		"}{",
		"{{id}",
	}
	for _, reason := range invalid {
		if validBanReason(reason) {
			t.Fatalf("expected %q to be invalid", reason)
		}
	}
}
