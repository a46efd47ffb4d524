package video

import (
	"context"
	"testing"

	"autoname/internal/testsupport"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		basename string
		want     Parts
	}{
		{
			"The.Quiet.Earth.1985.1080p.BluRay.x264-GRP.mkv",
			Parts{Title: "The Quiet Earth", Year: "1985", Resolution: "1080p", Source: "BluRay", Codec: "x264", Group: "GRP", Extension: "mkv"},
		},
		{
			"Stalker_1979_720p_WEB-DL.mp4",
			Parts{Title: "Stalker", Year: "1979", Resolution: "720p", Source: "WEB-DL", Extension: "mp4"},
		},
		{
			"Home Movie 2014.avi",
			Parts{Title: "Home Movie", Year: "2014", Extension: "avi"},
		},
		{
			"2001.A.Space.Odyssey.1968.2160p.HEVC.mkv",
			// The leading year reads as the tag boundary, losing the title.
			// Acceptable: basename guessing stays conservative.
			Parts{Year: "2001", Resolution: "2160p", Codec: "HEVC", Extension: "mkv"},
		},
		{
			"interview-recording.webm",
			Parts{Title: "interview-recording", Extension: "webm"},
		},
	}
	for _, tc := range tests {
		got := Partition(tc.basename)
		if got != tc.want {
			t.Errorf("Partition(%q)\n got %+v\nwant %+v", tc.basename, got, tc.want)
		}
	}
}

func TestExtractTaggedName(t *testing.T) {
	g := NewNameGuesser()
	f := testsupport.NewFile(t, "The.Quiet.Earth.1985.1080p.BluRay.x264-GRP.mkv", []byte("\x1aE\xdf\xa3"))

	raw, err := g.Extract(context.Background(), f)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := make(map[string]any, len(raw))
	for _, field := range raw {
		got[field.Name] = field.Value
	}
	if got["title"] != "The Quiet Earth" {
		t.Errorf("title = %v", got["title"])
	}
	if got["year"] != "1985" {
		t.Errorf("year = %v", got["year"])
	}
	if got["codec"] != "x264" {
		t.Errorf("codec = %v", got["codec"])
	}
	if got["extension"] != "mkv" {
		t.Errorf("extension = %v", got["extension"])
	}
}

func TestExtractUntaggedNameStaysQuiet(t *testing.T) {
	g := NewNameGuesser()
	f := testsupport.NewFile(t, "interview-recording.webm", []byte("\x1aE\xdf\xa3"))

	raw, err := g.Extract(context.Background(), f)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, field := range raw {
		if field.Name == "title" {
			t.Errorf("untagged basename published title %v", field.Value)
		}
	}
}
