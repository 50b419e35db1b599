// Package textchunk splits extracted document text into overlapping chunks
// sized for later retrieval or prompting.
package textchunk

import "strings"

const (
	DefaultChunkSize = 5000
	DefaultOverlap   = 500
)

// Split breaks text into chunks of at most chunkSize characters. Paragraphs
// (double-newline separated) are kept whole where possible; each new chunk
// starts with up to overlap characters of trailing paragraphs from the
// previous chunk so section boundaries are not lost.
func Split(text string, chunkSize, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 10
		}
	}

	paragraphs := splitParagraphs(text, chunkSize)

	var (
		chunks  []string
		current strings.Builder
		recent  []string
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSpace(current.String()))
		current.Reset()
	}

	for _, para := range paragraphs {
		if current.Len()+len(para)+2 > chunkSize && current.Len() > 0 {
			flush()
			if tail := overlapTail(recent, overlap); tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
			}
			recent = recent[:0]
		}
		current.WriteString(para)
		current.WriteString("\n\n")
		recent = append(recent, para)
		if len(recent) > 5 {
			recent = recent[1:]
		}
	}
	flush()

	return chunks
}

// splitParagraphs returns the paragraphs of text, hard-splitting any single
// paragraph longer than chunkSize.
func splitParagraphs(text string, chunkSize int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for len(para) > chunkSize {
			cut := chunkSize
			if idx := strings.LastIndexAny(para[:chunkSize], ".!?\n "); idx > chunkSize/2 {
				cut = idx + 1
			}
			out = append(out, strings.TrimSpace(para[:cut]))
			para = strings.TrimSpace(para[cut:])
		}
		if para != "" {
			out = append(out, para)
		}
	}
	return out
}

// overlapTail joins the most recent paragraphs that fit within overlap chars,
// newest last.
func overlapTail(recent []string, overlap int) string {
	if overlap == 0 || len(recent) == 0 {
		return ""
	}
	var tail []string
	size := 0
	for i := len(recent) - 1; i >= 0; i-- {
		next := len(recent[i]) + 2
		if size+next > overlap {
			break
		}
		tail = append([]string{recent[i]}, tail...)
		size += next
	}
	return strings.Join(tail, "\n\n")
}
