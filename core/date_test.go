package core

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	june2 := civil.Date{Year: 2025, Month: time.June, Day: 2}
	tests := []struct {
		name    string
		input   string
		want    civil.Date
		wantErr bool
	}{
		{name: "date", input: "2025-06-02", want: june2},
		{name: "unpadded", input: "2025-6-2", want: june2},
		{name: "surrounding spaces", input: "  2025-06-02 ", want: june2},
		{name: "timestamp", input: "2025-06-02T23:30:00.000Z", want: june2},
		{name: "unpadded timestamp", input: "2025-6-2T08:00:00Z", want: june2},
		{name: "date and time", input: "2025-06-02 08:00", want: june2},
		{name: "leap day", input: "2024-02-29", want: civil.Date{Year: 2024, Month: time.February, Day: 29}},
		{name: "empty", input: "", wantErr: true},
		{name: "day out of range", input: "2025-02-30", wantErr: true},
		{name: "day first", input: "02/06/2025", wantErr: true},
		{name: "garbage", input: "tomorrow", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
