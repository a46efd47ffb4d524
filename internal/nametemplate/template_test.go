package nametemplate

import (
	"errors"
	"testing"
	"time"

	"autoname/internal/coerce"
)

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		template string
		want     []string
	}{
		{"{datetime} {title}.{extension}", []string{"datetime", "title", "extension"}},
		{"{title} {title}", []string{"title"}},
		{"no placeholders", nil},
		{"{bad-name} {good_name}", []string{"good_name"}},
	}
	for _, tc := range tests {
		got := Placeholders(tc.template)
		if len(got) != len(tc.want) {
			t.Errorf("Placeholders(%q) = %v, want %v", tc.template, got, tc.want)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("Placeholders(%q)[%d] = %q, want %q", tc.template, i, got[i], tc.want[i])
			}
		}
	}
}

func TestBuildPDFRename(t *testing.T) {
	values := map[string]*coerce.Value{
		"datetime":  coerce.NewDateTime(time.Date(2016, 1, 11, 12, 41, 32, 0, time.UTC)),
		"title":     coerce.NewString("gmail"),
		"extension": coerce.NewString("pdf"),
	}
	got, err := Build("{datetime} {title}.{extension}", values, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "2016-01-11T124132 gmail.pdf" {
		t.Errorf("Build = %q, want %q", got, "2016-01-11T124132 gmail.pdf")
	}
}

func TestBuildAuthors(t *testing.T) {
	tests := []struct {
		name  string
		value *coerce.Value
		want  string
	}{
		{
			"list of full names",
			coerce.NewList([]*coerce.Value{
				coerce.NewString("Thomas H. Cormen"),
				coerce.NewString("Charles E. Leiserson"),
			}),
			"Cormen, Leiserson",
		},
		{
			"single name",
			coerce.NewString("Gibson Sjöberg"),
			"Sjöberg",
		},
		{
			"trailing initials",
			coerce.NewString("Katz J.M."),
			"Katz",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Build("{author}", map[string]*coerce.Value{"author": tc.value}, DefaultOptions())
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got != tc.want {
				t.Errorf("authors = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildTags(t *testing.T) {
	tags := coerce.NewList([]*coerce.Value{
		coerce.NewString("firsttag"),
		coerce.NewString("tagtwo"),
	})
	got, err := Build("{base} -- {tags}.{extension}", map[string]*coerce.Value{
		"base":      coerce.NewString("Descriptive name"),
		"tags":      tags,
		"extension": coerce.NewString("txt"),
	}, Options{BetweenTagSep: " "})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "Descriptive name -- firsttag tagtwo.txt" {
		t.Errorf("Build = %q", got)
	}
}

func TestBuildExtensionLowercasedNoDot(t *testing.T) {
	got, err := Build("{extension}", map[string]*coerce.Value{
		"extension": coerce.NewString(".PDF"),
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "pdf" {
		t.Errorf("extension = %q, want %q", got, "pdf")
	}
}

func TestBuildErrors(t *testing.T) {
	datetime := coerce.NewDateTime(time.Date(2016, 1, 11, 0, 0, 0, 0, time.UTC))

	if _, err := Build("{title}", map[string]*coerce.Value{}, DefaultOptions()); !errors.Is(err, ErrSyntax) {
		t.Errorf("missing mapping: err = %v, want ErrSyntax", err)
	}
	if _, err := Build("{title}", map[string]*coerce.Value{"title": datetime}, DefaultOptions()); !errors.Is(err, ErrSyntax) {
		t.Errorf("wrong kind: err = %v, want ErrSyntax", err)
	}
	if _, err := Build("{nonsense_field}", map[string]*coerce.Value{"nonsense_field": datetime}, DefaultOptions()); !errors.Is(err, ErrSyntax) {
		t.Errorf("unknown placeholder: err = %v, want ErrSyntax", err)
	}
	if _, err := Build("{title}", map[string]*coerce.Value{"title": coerce.NewString("...")}, DefaultOptions()); !errors.Is(err, ErrBuild) {
		t.Errorf("empty result: err = %v, want ErrBuild", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("{datetime} {title}.{extension}"); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := Validate("{made_up}"); !errors.Is(err, ErrSyntax) {
		t.Errorf("unknown placeholder: err = %v, want ErrSyntax", err)
	}
	if err := Validate("static name"); !errors.Is(err, ErrSyntax) {
		t.Errorf("no placeholders: err = %v, want ErrSyntax", err)
	}
}

func TestYearFromDatetime(t *testing.T) {
	got, err := Build("{year}", map[string]*coerce.Value{
		"year": coerce.NewDateTime(time.Date(2009, 7, 31, 0, 0, 0, 0, time.UTC)),
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "2009" {
		t.Errorf("year = %q", got)
	}
}
