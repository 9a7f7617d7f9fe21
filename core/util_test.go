package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		lower bool
		want  string
	}{
		{name: "trim", s: "  Hello\t", want: "Hello"},
		{name: "trim and lower", s: " A@X.com ", lower: true, want: "a@x.com"},
		{name: "empty", s: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanString(tt.s, tt.lower); got != tt.want {
				t.Errorf("failed! CleanString() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestParseCalendarDate(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    time.Time
		wantErr bool
	}{
		{name: "valid", s: "2024-03-10", want: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)},
		{name: "surrounding spaces", s: " 2024-03-10 ", want: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)},
		{name: "with time", s: "2024-03-10T10:00:00Z", wantErr: true},
		{name: "day out of range", s: "2024-02-30", wantErr: true},
		{name: "empty", s: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCalendarDate(tt.s)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, IsCalendarDate(tt.s))
				return
			}
			assert.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v; want %v", got, tt.want)
			assert.Equal(t, "2024-03-10", FormatCalendarDate(got))
		})
	}
}
