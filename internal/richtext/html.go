package richtext

import (
	"fmt"
	"html"
	"strings"
)

// HTML serializes the document, seed content last. Image layout is part
// of the serialized output so it survives save and reload.
func (e *Editor) HTML() string {
	var b strings.Builder
	var listType BlockType

	closeList := func() {
		switch listType {
		case BlockBulletList:
			b.WriteString("</ul>")
		case BlockOrderedList:
			b.WriteString("</ol>")
		}
		listType = ""
	}

	for _, blk := range e.blocks {
		if blk.Type == BlockBulletList || blk.Type == BlockOrderedList {
			if listType != blk.Type {
				closeList()
				if blk.Type == BlockBulletList {
					b.WriteString("<ul>")
				} else {
					b.WriteString("<ol>")
				}
				listType = blk.Type
			}
			b.WriteString("<li")
			writeBlockStyle(&b, blk)
			b.WriteString(">")
			writeSpans(&b, blk.Spans)
			b.WriteString("</li>")
			continue
		}
		closeList()
		writeBlock(&b, blk)
	}
	closeList()

	b.WriteString(e.seedHTML)
	return b.String()
}

func writeBlock(b *strings.Builder, blk Block) {
	switch blk.Type {
	case BlockImage:
		writeImage(b, blk.Image)
	case BlockHeading:
		level := blk.Level
		if level < 1 || level > 3 {
			level = 1
		}
		fmt.Fprintf(b, "<h%d", level)
		writeBlockStyle(b, blk)
		fmt.Fprintf(b, ">")
		writeSpans(b, blk.Spans)
		fmt.Fprintf(b, "</h%d>", level)
	case BlockQuote:
		b.WriteString("<blockquote")
		writeBlockStyle(b, blk)
		b.WriteString(">")
		writeSpans(b, blk.Spans)
		b.WriteString("</blockquote>")
	default:
		b.WriteString("<p")
		writeBlockStyle(b, blk)
		b.WriteString(">")
		if len(blk.Spans) == 0 {
			b.WriteString("<br>")
		} else {
			writeSpans(b, blk.Spans)
		}
		b.WriteString("</p>")
	}
}

func writeBlockStyle(b *strings.Builder, blk Block) {
	var styles []string
	if blk.Alignment != "" && blk.Alignment != AlignLeft {
		styles = append(styles, "text-align: "+string(blk.Alignment))
	}
	if blk.Indent > 0 {
		styles = append(styles, fmt.Sprintf("margin-left: %dem", blk.Indent*2))
	}
	if len(styles) > 0 {
		fmt.Fprintf(b, ` style=%q`, strings.Join(styles, "; "))
	}
}

func writeSpans(b *strings.Builder, spans []Span) {
	for _, s := range spans {
		writeSpan(b, s)
	}
}

func writeSpan(b *strings.Builder, s Span) {
	var closers []string

	if s.Marks.Link != "" {
		fmt.Fprintf(b, `<a href=%q>`, s.Marks.Link)
		closers = append(closers, "</a>")
	}
	if s.Marks.Bold {
		b.WriteString("<strong>")
		closers = append(closers, "</strong>")
	}
	if s.Marks.Italic {
		b.WriteString("<em>")
		closers = append(closers, "</em>")
	}
	if s.Marks.Underline {
		b.WriteString("<u>")
		closers = append(closers, "</u>")
	}
	if s.Marks.Strike {
		b.WriteString("<s>")
		closers = append(closers, "</s>")
	}
	var styles []string
	if s.Marks.Color != "" {
		styles = append(styles, "color: "+s.Marks.Color)
	}
	if s.Marks.Highlight != "" {
		styles = append(styles, "background-color: "+s.Marks.Highlight)
	}
	if len(styles) > 0 {
		fmt.Fprintf(b, `<span style=%q>`, strings.Join(styles, "; "))
		closers = append(closers, "</span>")
	}

	b.WriteString(html.EscapeString(s.Text))

	for i := len(closers) - 1; i >= 0; i-- {
		b.WriteString(closers[i])
	}
}

func writeImage(b *strings.Builder, img *Image) {
	if img == nil {
		return
	}
	var styles []string
	if img.Layout == LayoutWrap {
		styles = append(styles, "float: left", "margin: 0 1em 1em 0")
	} else {
		styles = append(styles, "display: block")
	}
	if img.Width > 0 {
		styles = append(styles, fmt.Sprintf("width: %dpx", img.Width))
	}
	fmt.Fprintf(b, `<img src=%q data-image-id=%q style=%q>`, img.URL, img.ID, strings.Join(styles, "; "))
}
