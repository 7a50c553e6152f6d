package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeDate(t *testing.T) {
	got, ok := ParseTime("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
	if FormatDate(got) != "2024-10-10" {
		t.Fatalf("unexpected format %s", FormatDate(got))
	}
}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Format(time.RFC3339) != s {
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
	got := ParseTimeDefault("not-a-date", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" DGS10, ,SP500,DGS10 ")
	if len(got) != 2 || got[0] != "DGS10" || got[1] != "SP500" {
		t.Fatalf("unexpected split %v", got)
	}
	if SplitList("  ") != nil {
		t.Fatalf("expected nil for blank input")
	}
}
