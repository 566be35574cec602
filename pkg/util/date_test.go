package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestFromUnixMillis(t *testing.T) {
	if !FromUnixMillis(0).IsZero() {
		t.Fatalf("expected zero time")
	}
	ms := int64(1728554410000)
	if FromUnixMillis(ms).UnixMilli() != ms {
		t.Fatalf("round trip failed")
	}
}

func TestHoursSince(t *testing.T) {
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	created := now.Add(-90 * time.Minute)
	if got := HoursSince(created, now); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
	if HoursSince(time.Time{}, now) != 0 {
		t.Fatalf("expected 0 for zero time")
	}
}
