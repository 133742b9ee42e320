package archive

import (
	"testing"
	"time"
)

func TestTimeFromApple(t *testing.T) {
	ref := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	secondsSinceEpoch := int64(ref.Sub(appleEpoch) / time.Second)

	tests := []struct {
		name string
		raw  int64
		want time.Time
	}{
		{"zero is missing", 0, time.Time{}},
		{"nanosecond precision", secondsSinceEpoch * int64(time.Second), ref},
		{"legacy whole seconds", secondsSinceEpoch, ref},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeFromApple(tt.raw)
			if !got.Equal(tt.want) {
				t.Errorf("timeFromApple(%d) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAppleNanosRoundTrip(t *testing.T) {
	ref := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
	if got := timeFromApple(appleNanos(ref)); !got.Equal(ref) {
		t.Errorf("round trip = %v, want %v", got, ref)
	}
}
