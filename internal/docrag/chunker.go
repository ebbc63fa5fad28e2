package docrag

import "strings"

// Chunker performs token-budget-aware segmentation of markdown and
// JS/TS source into chunks. Fenced code blocks and top-level declaration
// boundaries are respected; the terminal token splitter enforces the
// budget with a sliding overlap window.
type Chunker struct {
	maxTokens     int
	overlapTokens int
	tok           Tokenizer
}

func NewChunker(tok Tokenizer, maxTokens, overlapTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	if overlapTokens < 0 || overlapTokens >= maxTokens {
		overlapTokens = 0
	}
	return &Chunker{
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
		tok:           tok,
	}
}

type mdSpan struct {
	text   string
	fenced bool
}

// ChunkMarkdown chunks a markdown document. Fenced code blocks are
// indivisible units tagged code; prose is buffered under the most recent
// level 1-3 heading and flushed whenever it outgrows the token budget.
func (c *Chunker) ChunkMarkdown(text, source string) []Chunk {
	var chunks []Chunk
	var buf strings.Builder
	section := ""

	for _, span := range splitFencedSpans(text) {
		if span.fenced {
			if strings.TrimSpace(buf.String()) != "" {
				chunks = append(chunks, c.splitByTokens(buf.String(), source, TypeDoc, section)...)
			}
			buf.Reset()
			chunks = append(chunks, c.splitByTokens(span.text, source, TypeCode, section)...)
			continue
		}
		for _, line := range strings.Split(span.text, "\n") {
			if title, ok := parseSectionHeading(line); ok {
				section = title
			}
		}
		buf.WriteString(span.text)
		if c.tok.CountTokens(buf.String()) > c.maxTokens {
			chunks = append(chunks, c.splitByTokens(buf.String(), source, TypeDoc, section)...)
			buf.Reset()
		}
	}

	if strings.TrimSpace(buf.String()) != "" {
		chunks = append(chunks, c.splitByTokens(buf.String(), source, TypeDoc, section)...)
	}
	return chunks
}

// ChunkCode chunks a JS/TS source file at top-level declaration
// boundaries. The boundaries are zero-width cut points: joining the
// pieces reconstructs the input exactly. An oversized declaration is
// handed to the token splitter untouched.
func (c *Chunker) ChunkCode(text, source string) []Chunk {
	var chunks []Chunk
	var buf strings.Builder

	for _, piece := range splitDeclBlocks(text) {
		if c.tok.CountTokens(buf.String()+piece) > c.maxTokens && strings.TrimSpace(buf.String()) != "" {
			chunks = append(chunks, c.splitByTokens(buf.String(), source, TypeCode, "")...)
			buf.Reset()
		}
		buf.WriteString(piece)
	}

	if strings.TrimSpace(buf.String()) != "" {
		chunks = append(chunks, c.splitByTokens(buf.String(), source, TypeCode, "")...)
	}
	return chunks
}

// splitByTokens is the shared terminal splitter. Whatever reaches it is
// emitted as chunks of at most maxTokens tokens; adjacent windows share
// overlapTokens tokens of decoded context.
func (c *Chunker) splitByTokens(text, source, typ, section string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	tokens := c.tok.Encode(text)
	if len(tokens) <= c.maxTokens {
		return []Chunk{{
			Text:       text,
			SourceFile: source,
			Type:       typ,
			Section:    section,
			TokenCount: len(tokens),
		}}
	}

	var chunks []Chunk
	start := 0
	for start < len(tokens) {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]
		chunks = append(chunks, Chunk{
			Text:       c.tok.Decode(window),
			SourceFile: source,
			Type:       typ,
			Section:    section,
			TokenCount: len(window),
		})
		if end >= len(tokens) {
			break
		}
		start = end - c.overlapTokens
	}
	return chunks
}

// splitFencedSpans partitions markdown into alternating prose and fenced
// spans. A fence line opens a span that runs through the next fence line
// inclusive. An unterminated fence is left in the surrounding prose.
func splitFencedSpans(text string) []mdSpan {
	lines := strings.SplitAfter(text, "\n")
	var spans []mdSpan
	var prose []string

	for i := 0; i < len(lines); i++ {
		if !isFenceLine(lines[i]) {
			prose = append(prose, lines[i])
			continue
		}
		closing := -1
		for j := i + 1; j < len(lines); j++ {
			if isFenceLine(lines[j]) {
				closing = j
				break
			}
		}
		if closing == -1 {
			prose = append(prose, lines[i])
			continue
		}
		if len(prose) > 0 {
			spans = append(spans, mdSpan{text: strings.Join(prose, "")})
			prose = nil
		}
		spans = append(spans, mdSpan{text: strings.Join(lines[i:closing+1], ""), fenced: true})
		i = closing
	}

	if len(prose) > 0 {
		spans = append(spans, mdSpan{text: strings.Join(prose, "")})
	}
	return spans
}

func isFenceLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

// parseSectionHeading recognizes level 1-3 markdown headings with text.
func parseSectionHeading(line string) (string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 3 {
		return "", false
	}
	if level >= len(line) || (line[level] != ' ' && line[level] != '\t') {
		return "", false
	}
	title := strings.TrimSpace(line[level:])
	if title == "" {
		return "", false
	}
	return title, true
}

// splitDeclBlocks cuts source text immediately before each line that
// starts a top-level JS/TS declaration. No characters are dropped.
func splitDeclBlocks(text string) []string {
	var pieces []string
	prev := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' || i <= prev {
			continue
		}
		if isDeclStart(text[i+1:]) {
			pieces = append(pieces, text[prev:i])
			prev = i
		}
	}
	pieces = append(pieces, text[prev:])
	return pieces
}

var declKeywords = []string{"function", "class", "const", "let", "var"}

// isDeclStart reports whether s begins with an optionally export- and
// async-qualified declaration keyword followed by an identifier.
func isDeclStart(s string) bool {
	if rest, ok := cutKeyword(s, "export"); ok {
		s = rest
	}
	if rest, ok := cutKeyword(s, "async"); ok {
		s = rest
	}
	for _, kw := range declKeywords {
		if rest, ok := cutKeyword(s, kw); ok {
			return len(rest) > 0 && isWordChar(rest[0])
		}
	}
	return false
}

// cutKeyword strips a leading keyword plus the run of whitespace that
// must follow it.
func cutKeyword(s, kw string) (string, bool) {
	if !strings.HasPrefix(s, kw) {
		return s, false
	}
	rest := s[len(kw):]
	if len(rest) == 0 || !isSpaceChar(rest[0]) {
		return s, false
	}
	i := 0
	for i < len(rest) && isSpaceChar(rest[i]) {
		i++
	}
	return rest[i:], true
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isSpaceChar(b byte) bool {
	return b == ' ' || b == '\t'
}
