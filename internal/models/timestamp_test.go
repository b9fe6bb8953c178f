package models

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-01T08:30:00Z", time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC), false},
		{"2024-01-01T08:30:00+02:00", time.Date(2024, 1, 1, 6, 30, 0, 0, time.UTC), false},
		{"2024-01-01 08:30", time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC), false},
		{" 2024-01-01 ", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"yesterday", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
