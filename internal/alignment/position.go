package alignment

// US Letter page geometry in PDF points, with one-inch margins. Real layout
// data is not available from plain-text extraction, so positions are an even
// vertical split of the printable area.
const (
	pageWidth    = 612.0
	pageHeight   = 792.0
	pageMargin   = 72.0
	printableTop = pageMargin
)

// estimatePositions assigns each sentence a bounding box by dividing its
// page's printable height evenly among the sentences on that page.
func estimatePositions(sentences []AlignedSentence) {
	perPage := make(map[int]int)
	for _, s := range sentences {
		perPage[s.Page]++
	}

	printableWidth := pageWidth - 2*pageMargin
	printableHeight := pageHeight - 2*pageMargin
	for i := range sentences {
		s := &sentences[i]
		count := perPage[s.Page]
		if count == 0 {
			continue
		}
		slot := printableHeight / float64(count)
		s.Position = Box{
			X:      pageMargin,
			Y:      printableTop + float64(s.Order)*slot,
			Width:  printableWidth,
			Height: slot,
		}
	}
}
