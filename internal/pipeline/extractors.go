package pipeline

import (
	"autoname/internal/extractor"
	"autoname/internal/extractor/document"
	"autoname/internal/extractor/filesystem"
	"autoname/internal/extractor/imghealth"
	"autoname/internal/extractor/text"
	"autoname/internal/extractor/video"
	"autoname/internal/isbn"
	"autoname/internal/shellout"
)

// DefaultExtractors builds the full probe set. Probes missing their external
// tool disable themselves through the dependency guard at runner startup.
func DefaultExtractors(nameTagSep, betweenTagSep string) []extractor.Extractor {
	slow := shellout.New(extractor.DefaultSlowTimeout)

	probes := []extractor.Extractor{
		filesystem.NewAttrs(),
		filesystem.NewContents(),
		filesystem.NewFiletags(nameTagSep, betweenTagSep),
		document.NewPDFMetadata(slow),
		document.NewEPUBMetadata(),
		document.NewExiftool(slow),
		document.NewEbookAnalyzer(slow, isbn.NewClient(nil)),
		text.NewPlainText(),
		text.NewEPUBText(),
		video.NewNameGuesser(),
		imghealth.NewProber(slow),
	}
	for _, converter := range text.NewConverters(slow) {
		probes = append(probes, converter)
	}
	return probes
}
