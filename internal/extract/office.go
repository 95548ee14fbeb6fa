package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	contentTypesPart = "[Content_Types].xml"
	docxDefaultPart  = "word/document.xml"
	odfContentPart   = "content.xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	docxText = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	pptxText = regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`)
	// text:p, text:h and text:span in document order.
	odfText = regexp.MustCompile(`<text:(?:p|h|span)(?:\s[^>]*)?>([^<]*)`)

	overrideTag  = regexp.MustCompile(`<Override\s[^>]*>`)
	partNameAttr = regexp.MustCompile(`PartName="([^"]+)"`)
	slideNumber  = regexp.MustCompile(`slide(\d+)\.xml$`)
)

// extractOffice reads the text runs of a zipped OOXML or OpenDocument file and joins them with
// single spaces.
func extractOffice(content []byte, format Format) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract %s: not a zip archive: %w", format, err)
	}

	var (
		parts []string
		tag   *regexp.Regexp
	)
	switch format {
	case FormatDOCX:
		parts, tag = []string{docxMainPart(zr)}, docxText
	case FormatPPTX:
		parts, tag = slideParts(zr), pptxText
	default:
		parts, tag = []string{odfContentPart}, odfText
	}

	var words []string
	found := 0
	for _, name := range parts {
		data, err := readPart(zr, name)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", format, err)
		}
		if data == nil {
			continue
		}
		found++
		for _, m := range tag.FindAllSubmatch(data, -1) {
			if w := strings.TrimSpace(string(m[1])); w != "" {
				words = append(words, w)
			}
		}
	}
	if found == 0 && format != FormatPPTX {
		return "", fmt.Errorf("extract %s: %s not found", format, strings.Join(parts, ", "))
	}
	return strings.Join(words, " "), nil
}

// docxMainPart resolves the main document part from [Content_Types].xml, falling back to
// word/document.xml.
func docxMainPart(zr *zip.Reader) string {
	data, err := readPart(zr, contentTypesPart)
	if err != nil || data == nil {
		return docxDefaultPart
	}
	for _, tag := range overrideTag.FindAll(data, -1) {
		if !bytes.Contains(tag, []byte(`ContentType="`+docxMainType+`"`)) {
			continue
		}
		if m := partNameAttr.FindSubmatch(tag); m != nil {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDefaultPart
}

// slideParts lists ppt/slides/slideN.xml in slide order.
func slideParts(zr *zip.Reader) []string {
	type slide struct {
		name string
		n    int
	}
	var slides []slide
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/") {
			continue
		}
		m := slideNumber.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{name: f.Name, n: n})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })
	out := make([]string, len(slides))
	for i, s := range slides {
		out[i] = s.name
	}
	return out
}

// readPart returns the bytes of the named zip entry, or nil when it does not exist.
func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}
