package doctpl

// measure returns the vertical space elem takes when laid out in b, without
// page breaks. It selects fonts on the document as a side effect.
func (r *renderer) measure(elem Element, b box) float64 {
	switch elem.Type {
	case TypeText, TypeParagraph:
		return r.measureText(elem, b, r.elementFont(elem, r.base))
	case TypeHeading:
		return r.measureText(headingSpacing(elem), b, r.headingFont(elem))
	case TypeList:
		font := r.elementFont(elem, r.base)
		h := elem.SpaceBefore + elem.SpaceAfter
		inner := box{x: b.x + 10, w: b.w - 10}
		for i, item := range elem.Items {
			h += r.measureText(Element{Text: listPrefix(elem, i) + item}, inner, font)
		}
		return h
	case TypeTable:
		return elem.SpaceBefore + r.buildTable(elem, b).Measure() + elem.SpaceAfter
	case TypeImage:
		if elem.Image == nil {
			return 0
		}
		key, ok := r.registerImage(elem.Image)
		if !ok {
			return 0
		}
		_, h := r.imageSize(key, elem.Image, b.w)
		return elem.SpaceBefore + h + elem.SpaceAfter
	case TypeStack:
		h := elem.SpaceBefore + elem.SpaceAfter
		for _, child := range elem.Children {
			h += r.measure(child, b)
		}
		return h
	case TypeColumns:
		tallest := 0.0
		for i, cb := range columnBoxes(elem, b) {
			if h := r.measure(elem.Children[i], cb); h > tallest {
				tallest = h
			}
		}
		return elem.SpaceBefore + tallest + elem.SpaceAfter
	case TypeLine, TypeHR:
		before, after := lineSpacing(elem)
		return before + lineWidth(elem) + after
	case TypeSpacer:
		return spacerHeight(elem)
	case TypeBarcode:
		if elem.Barcode == nil || elem.Barcode.Value == "" {
			return 0
		}
		_, h := barcodeSize(elem.Barcode)
		return elem.SpaceBefore + h + elem.SpaceAfter
	}
	return 0
}

func (r *renderer) measureText(elem Element, b box, font Font) float64 {
	lines, lineH := r.layoutText(elem.Text, font, b.w)
	return elem.SpaceBefore + float64(len(lines))*lineH + elem.SpaceAfter
}
