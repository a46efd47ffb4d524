// Package filesystem holds the probes that need nothing but the file
// itself: stat attributes, the filetags basename analyzer, and the generic
// contents probe.
package filesystem

import (
	"context"
	"os"
	"syscall"
	"time"

	"autoname/internal/coerce"
	"autoname/internal/extractor"
	"autoname/internal/fileobject"
	"autoname/internal/uri"
)

// AttrsExtractor reports filesystem metadata: timestamps, size, ownership,
// and inode. Access time carries a low confidence weight since reading the
// file during a run perturbs it.
type AttrsExtractor struct{}

func NewAttrs() *AttrsExtractor { return &AttrsExtractor{} }

func (*AttrsExtractor) Name() string                { return "filesystem" }
func (*AttrsExtractor) Version() string             { return "1.0" }
func (*AttrsExtractor) Domain() string              { return uri.DomainExtractor }
func (*AttrsExtractor) HandledMIMETypes() []string  { return []string{"*/*"} }
func (*AttrsExtractor) Slow() bool                  { return false }
func (*AttrsExtractor) DependenciesSatisfied() error { return nil }

func (*AttrsExtractor) CanHandle(*fileobject.File) bool { return true }

func (*AttrsExtractor) FieldSpecs() map[string]extractor.FieldSpec {
	return map[string]extractor.FieldSpec{
		"date_modified": {Kind: coerce.KindDateTime, Generic: "date-modified", Probability: 1.0},
		"date_created":  {Kind: coerce.KindDateTime, Generic: "date-created", Probability: 1.0},
		"date_accessed": {Kind: coerce.KindDateTime, Generic: "date-created", Probability: 0.25},
		"size":          {Kind: coerce.KindInt, Probability: 1.0},
		"owner_uid":     {Kind: coerce.KindInt, Probability: 1.0},
		"owner_gid":     {Kind: coerce.KindInt, Probability: 1.0},
		"inode":         {Kind: coerce.KindInt, Probability: 1.0},
	}
}

func (*AttrsExtractor) Extract(_ context.Context, f *fileobject.File) (extractor.Raw, error) {
	info, err := os.Stat(f.Path())
	if err != nil {
		return nil, err
	}

	var raw extractor.Raw
	raw.Add("date_modified", info.ModTime().Truncate(time.Second))
	raw.Add("size", info.Size())

	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		raw.Add("owner_uid", int64(stat.Uid))
		raw.Add("owner_gid", int64(stat.Gid))
		raw.Add("inode", int64(stat.Ino))
		created := statCtime(stat)
		if btime, ok := birthTime(f.Path()); ok {
			created = btime
		}
		raw.Add("date_created", created)
		raw.Add("date_accessed", statAtime(stat))
	}
	return raw, nil
}
