package middleware

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func Test_buildKey(t *testing.T) {
	got := buildKey("POST", "/runs", testReqID)
	want := "idemp:loan_master:post:/runs:" + testReqID
	if got != want {
		t.Fatalf("buildKey = %q, want %q", got, want)
	}
}

func Test_validReqID(t *testing.T) {
	valid := []string{testReqID, "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", " AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA "}
	for _, id := range valid {
		if !validReqID(id) {
			t.Errorf("validReqID(%q) = false, want true", id)
		}
	}
	invalid := []string{"", "abc", "3f9a6a1b3d544fbe8b3a6b3e8d6b2c8", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"}
	for _, id := range invalid {
		if validReqID(id) {
			t.Errorf("validReqID(%q) = true, want false", id)
		}
	}
}

func Test_parseAxRequestAt(t *testing.T) {
	ref := time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)
	cases := map[string]time.Time{
		strconv.FormatInt(ref.Unix(), 10):      ref,
		strconv.FormatInt(ref.UnixMilli(), 10): ref,
		"2025-09-05T10:00:00+07:00":            ref,
		"2025-09-05T03:00:00Z":                 ref,
		"2025-09-05T03:00:00.000000001Z":       ref.Add(time.Nanosecond),
	}
	for in, want := range cases {
		got, err := parseAxRequestAt(in)
		if err != nil {
			t.Fatalf("parseAxRequestAt(%q) error: %v", in, err)
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Fatalf("parseAxRequestAt(%q) = %v, want %v UTC", in, got, want)
		}
	}
	for _, in := range []string{"", "yesterday", "2025-09-05T10:00:00"} {
		if _, err := parseAxRequestAt(in); err == nil {
			t.Fatalf("parseAxRequestAt(%q) expected error", in)
		}
	}
}

func Test_saveFinal_loadEntry(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	e := idempEntry{Code: 201, Body: []byte(`{"ok":true}`), BodySHA256: bodyHash([]byte("x")), RequestID: testReqID}
	if err := saveFinal(context.Background(), rdb, "k", e, time.Minute); err != nil {
		t.Fatalf("saveFinal: %v", err)
	}
	got, err := loadEntry(context.Background(), rdb, "k")
	if err != nil {
		t.Fatalf("loadEntry: %v", err)
	}
	if got.Code != 201 || string(got.Body) != `{"ok":true}` || got.InProgress {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}
}
