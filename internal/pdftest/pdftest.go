// Package pdftest writes small PDF documents for tests. Every page uses a
// single Courier font resource named F1.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Letter is the MediaBox of a US letter page.
const Letter = "[0 0 612 792]"

// Document returns a valid PDF with one page per content stream.
func Document(pages ...string) []byte {
	return build("Catalog", Letter, pages)
}

// Malformed returns a PDF that a lenient reader opens but that fails
// structural validation: the catalog is mistyped and the MediaBox has three
// numbers.
func Malformed(pages ...string) []byte {
	return build("Katalog", "[0 0 612]", pages)
}

// Cells returns a content stream that places each cell of rows in its own
// text object, columns 100pt apart and rows 14pt apart.
func Cells(rows [][]string) string {
	var b strings.Builder
	for r, row := range rows {
		for c, cell := range row {
			fmt.Fprintf(&b, "BT /F1 10 Tf %d %d Td (%s) Tj ET\n", 72+100*c, 700-14*r, cell)
		}
	}
	return b.String()
}

// Lines returns a content stream that sets lines in a single text object,
// moving down with Td between them.
func Lines(lines ...string) string {
	var b strings.Builder
	b.WriteString("BT /F1 10 Tf 72 700 Td")
	for i, l := range lines {
		if i > 0 {
			b.WriteString(" 0 -14 Td")
		}
		fmt.Fprintf(&b, " (%s) Tj", l)
	}
	b.WriteString(" ET\n")
	return b.String()
}

func build(catalogType, mediaBox string, pages []string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj(fmt.Sprintf("<< /Type /%s /Pages 2 0 R >>", catalogType))
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>")
	for i, content := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox %s /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			mediaBox, 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}
