package profile

import (
	"reflect"
	"testing"
	"time"
)

func TestParseTopics(t *testing.T) {
	cases := map[string][]string{
		"a, b ,,c":          {"a", "b", "c"},
		"":                  {},
		" , ,":              {},
		"Product Strategy":  {"Product Strategy"},
		"UX,  Market Fit  ": {"UX", "Market Fit"},
	}

	for raw, want := range cases {
		got := ParseTopics(raw)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("ParseTopics(%q) = %#v, want %#v", raw, got, want)
		}
	}
}

func TestInputBuildNeverReturnsNilTopics(t *testing.T) {
	now := time.Now().UTC()
	p := Input{Name: "Sarah", Role: "PM"}.Build("id-1", now)

	if p.ID != "id-1" || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected identity: %+v", p)
	}
	if p.MeetingTopics == nil {
		t.Fatal("expected empty topics slice, got nil")
	}
}
