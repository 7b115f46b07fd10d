// Package richtext models the composer's rich-text surface as an
// explicit document state machine: formatting marks, block structure,
// inline images with block-vs-float layout, and undo/redo. The editor
// serializes to the HTML submitted as a message body.
package richtext

import (
	"strings"
)

// BlockType is the structural role of a block
type BlockType string

const (
	BlockParagraph   BlockType = "paragraph"
	BlockHeading     BlockType = "heading"
	BlockBulletList  BlockType = "bullet_list"
	BlockOrderedList BlockType = "ordered_list"
	BlockQuote       BlockType = "quote"
	BlockImage       BlockType = "image"
)

// Alignment is a block's horizontal alignment
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// ImageLayout positions an inline image: a full-width block of its own
// or floated so text wraps around it
type ImageLayout string

const (
	LayoutBlock ImageLayout = "block"
	LayoutWrap  ImageLayout = "wrap"
)

// Marks is the character-level formatting applied to a span of text
type Marks struct {
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Link      string
	Color     string
	Highlight string
}

// Zero reports whether no mark is active
func (m Marks) Zero() bool {
	return m == Marks{}
}

// Span is a run of text sharing one set of marks
type Span struct {
	Text  string
	Marks Marks
}

// Image is an inline image element. Width is in pixels; zero means
// natural size.
type Image struct {
	ID     string
	URL    string
	Width  int
	Layout ImageLayout
}

// Block is one document block: either text spans or a single image
type Block struct {
	Type      BlockType
	Level     int // heading level, 1..3
	Alignment Alignment
	Indent    int
	Spans     []Span
	Image     *Image
}

// Editor is the composer's document model. All commands apply at the
// cursor block (always the last block) with the currently active marks;
// every mutating command pushes an undo snapshot first.
type Editor struct {
	blocks        []Block
	active        Marks
	blockType     BlockType
	selectedImage string // image id, empty when none selected

	undo [][]Block
	redo [][]Block

	seedHTML string // pre-rendered content appended after the typed body
}

// NewEditor creates an empty editor with a single paragraph
func NewEditor() *Editor {
	return &Editor{
		blocks:    []Block{{Type: BlockParagraph, Alignment: AlignLeft}},
		blockType: BlockParagraph,
	}
}

// NewEditorWithSeed creates an editor whose serialized output ends with
// the given HTML. Used for forwards, where the quoted original sits
// below whatever the user types.
func NewEditorWithSeed(seedHTML string) *Editor {
	e := NewEditor()
	e.seedHTML = seedHTML
	return e
}

func (e *Editor) cursor() *Block {
	return &e.blocks[len(e.blocks)-1]
}

func (e *Editor) snapshot() {
	cp := make([]Block, len(e.blocks))
	for i, b := range e.blocks {
		cp[i] = b
		cp[i].Spans = append([]Span(nil), b.Spans...)
		if b.Image != nil {
			img := *b.Image
			cp[i].Image = &img
		}
	}
	e.undo = append(e.undo, cp)
	e.redo = nil
}

// TypeText appends text at the cursor with the active marks
func (e *Editor) TypeText(text string) {
	if text == "" {
		return
	}
	e.snapshot()
	cur := e.cursor()
	if cur.Type == BlockImage {
		e.blocks = append(e.blocks, Block{Type: e.blockType, Alignment: AlignLeft})
		cur = e.cursor()
	}
	if n := len(cur.Spans); n > 0 && cur.Spans[n-1].Marks == e.active {
		cur.Spans[n-1].Text += text
		return
	}
	cur.Spans = append(cur.Spans, Span{Text: text, Marks: e.active})
}

// NewBlock starts a new block of the current block type
func (e *Editor) NewBlock() {
	e.snapshot()
	prev := e.cursor()
	e.blocks = append(e.blocks, Block{
		Type:      e.blockType,
		Level:     prev.Level,
		Alignment: prev.Alignment,
		Indent:    prev.Indent,
	})
}

// Mark toggles

func (e *Editor) ToggleBold()      { e.active.Bold = !e.active.Bold }
func (e *Editor) ToggleItalic()    { e.active.Italic = !e.active.Italic }
func (e *Editor) ToggleUnderline() { e.active.Underline = !e.active.Underline }
func (e *Editor) ToggleStrike()    { e.active.Strike = !e.active.Strike }

// SetLink makes subsequent text a link to url; empty url clears it
func (e *Editor) SetLink(url string) { e.active.Link = url }

// SetColor sets the text color for subsequent text
func (e *Editor) SetColor(color string) { e.active.Color = color }

// SetHighlight sets the highlight color for subsequent text
func (e *Editor) SetHighlight(color string) { e.active.Highlight = color }

// ActiveMarks returns the marks applied to subsequent typing
func (e *Editor) ActiveMarks() Marks { return e.active }

// ClearFormatting drops the active marks and resets the cursor block's
// spans to unmarked text
func (e *Editor) ClearFormatting() {
	e.snapshot()
	e.active = Marks{}
	cur := e.cursor()
	if cur.Type == BlockImage {
		return
	}
	var plain strings.Builder
	for _, s := range cur.Spans {
		plain.WriteString(s.Text)
	}
	if plain.Len() > 0 {
		cur.Spans = []Span{{Text: plain.String()}}
	} else {
		cur.Spans = nil
	}
	cur.Alignment = AlignLeft
	cur.Indent = 0
}

// SetBlockType changes the cursor block's type and the type applied to
// new blocks
func (e *Editor) SetBlockType(t BlockType, level int) {
	if t == BlockImage {
		return
	}
	e.snapshot()
	e.blockType = t
	cur := e.cursor()
	if cur.Type == BlockImage {
		return
	}
	cur.Type = t
	cur.Level = level
}

// SetAlignment aligns the cursor block
func (e *Editor) SetAlignment(a Alignment) {
	e.snapshot()
	e.cursor().Alignment = a
}

// Indent increases the cursor block's indent level
func (e *Editor) Indent() {
	e.snapshot()
	e.cursor().Indent++
}

// Outdent decreases the cursor block's indent level, floored at zero
func (e *Editor) Outdent() {
	cur := e.cursor()
	if cur.Indent == 0 {
		return
	}
	e.snapshot()
	e.cursor().Indent--
}

// InsertImage appends an image block and selects it. Images start in
// block layout.
func (e *Editor) InsertImage(id, url string) {
	e.snapshot()
	e.blocks = append(e.blocks, Block{
		Type:  BlockImage,
		Image: &Image{ID: id, URL: url, Layout: LayoutBlock},
	})
	e.selectedImage = id
}

// SelectImage marks the image with the given id as the single selected
// element; it reports whether the id was found
func (e *Editor) SelectImage(id string) bool {
	for i := range e.blocks {
		if img := e.blocks[i].Image; img != nil && img.ID == id {
			e.selectedImage = id
			return true
		}
	}
	return false
}

// DeselectImage clears the image selection
func (e *Editor) DeselectImage() {
	e.selectedImage = ""
}

// SelectedImageID returns the id of the selected image, empty when none
func (e *Editor) SelectedImageID() string {
	return e.selectedImage
}

func (e *Editor) selected() *Image {
	if e.selectedImage == "" {
		return nil
	}
	for i := range e.blocks {
		if img := e.blocks[i].Image; img != nil && img.ID == e.selectedImage {
			return img
		}
	}
	return nil
}

// SetImageLayout switches the selected image between block and wrap
// layout; a no-op when nothing is selected
func (e *Editor) SetImageLayout(layout ImageLayout) {
	img := e.selected()
	if img == nil || img.Layout == layout {
		return
	}
	e.snapshot()
	e.selected().Layout = layout
}

// ResizeImage sets the selected image's width in pixels; a no-op when
// nothing is selected
func (e *Editor) ResizeImage(width int) {
	img := e.selected()
	if img == nil || width <= 0 {
		return
	}
	e.snapshot()
	e.selected().Width = width
}

// RemoveImage deletes the image with the given id
func (e *Editor) RemoveImage(id string) {
	for i := range e.blocks {
		if img := e.blocks[i].Image; img != nil && img.ID == id {
			e.snapshot()
			e.blocks = append(e.blocks[:i], e.blocks[i+1:]...)
			if e.selectedImage == id {
				e.selectedImage = ""
			}
			if len(e.blocks) == 0 {
				e.blocks = []Block{{Type: BlockParagraph, Alignment: AlignLeft}}
			}
			return
		}
	}
}

// Undo restores the document to the state before the last mutating
// command; it reports whether anything was undone
func (e *Editor) Undo() bool {
	if len(e.undo) == 0 {
		return false
	}
	e.redo = append(e.redo, e.blocks)
	e.blocks = e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	if e.selected() == nil {
		e.selectedImage = ""
	}
	return true
}

// Redo re-applies the last undone command
func (e *Editor) Redo() bool {
	if len(e.redo) == 0 {
		return false
	}
	e.undo = append(e.undo, e.blocks)
	e.blocks = e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	if e.selected() == nil {
		e.selectedImage = ""
	}
	return true
}

// PlainText returns the document's text content, one line per text
// block. Image blocks contribute nothing.
func (e *Editor) PlainText() string {
	var lines []string
	for _, b := range e.blocks {
		if b.Type == BlockImage {
			continue
		}
		var sb strings.Builder
		for _, s := range b.Spans {
			sb.WriteString(s.Text)
		}
		if sb.Len() > 0 {
			lines = append(lines, sb.String())
		}
	}
	return strings.Join(lines, "\n")
}

// IsEmpty reports whether the editor holds no text, no images and no
// seed content
func (e *Editor) IsEmpty() bool {
	return strings.TrimSpace(e.PlainText()) == "" && !e.hasImage() && e.seedHTML == ""
}

func (e *Editor) hasImage() bool {
	for _, b := range e.blocks {
		if b.Image != nil {
			return true
		}
	}
	return false
}
