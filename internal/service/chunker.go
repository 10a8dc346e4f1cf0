package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/veralex-legal/casebrain/internal/domain"
)

// ChunkConfig controls how extracted text is split for embedding.
type ChunkConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxTokens:     800,
		OverlapTokens: 100,
	}
}

var (
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)
	crlfPattern     = regexp.MustCompile(`\r\n`)
	newlinePattern  = regexp.MustCompile(`\n{3,}`)
)

// EstimateTokens estimates the token count of text.
// Deterministic heuristic: 1 token per 4 characters, rounded up.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// ChunkDocument splits text into ordered, token-bounded chunks.
// Consecutive chunks share roughly OverlapTokens of trailing sentences so
// context survives chunk boundaries; the overlap counts against the next
// chunk's budget, so no chunk ever estimates above MaxTokens. Empty text
// yields zero chunks; text that fits within MaxTokens yields exactly one.
func ChunkDocument(text string, cfg ChunkConfig) []domain.ChunkDraft {
	if cfg.MaxTokens <= 0 {
		cfg = DefaultChunkConfig()
	}

	clean := crlfPattern.ReplaceAllString(text, "\n")
	clean = newlinePattern.ReplaceAllString(clean, "\n\n")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil
	}

	sentences := splitSentences(clean, cfg.MaxTokens)
	if len(sentences) == 0 {
		return nil
	}

	// The budget is tracked in bytes of the joined content, separators
	// included, so the estimate of the final chunk text is exact.
	maxChars := cfg.MaxTokens * 4
	overlapChars := cfg.OverlapTokens * 4

	var chunks []domain.ChunkDraft
	var current []string
	currentLen := 0

	flush := func() {
		content := strings.TrimSpace(strings.Join(current, " "))
		if content == "" {
			return
		}
		chunks = append(chunks, domain.ChunkDraft{
			Index:      len(chunks),
			Content:    content,
			TokenCount: EstimateTokens(content),
		})
	}

	for i, sentence := range sentences {
		need := len(sentence)
		if len(current) > 0 {
			need += currentLen + 1
		}

		if need > maxChars && len(current) > 0 {
			flush()

			// Seed the next chunk with trailing sentences, but never let
			// the seed crowd out the sentence that triggered the flush.
			seedBudget := overlapChars
			if room := maxChars - len(sentence) - 1; seedBudget > room {
				seedBudget = room
			}
			current, currentLen = overlapWindow(sentences, i, seedBudget)
		}

		if len(current) > 0 {
			currentLen++
		}
		current = append(current, sentence)
		currentLen += len(sentence)
	}

	flush()
	return chunks
}

// overlapWindow collects sentences preceding index i, newest last, whose
// combined length (separators included) fits within budget bytes.
func overlapWindow(sentences []string, i, budget int) ([]string, int) {
	if budget <= 0 {
		return nil, 0
	}

	var window []string
	total := 0
	for j := i - 1; j >= 0; j-- {
		cost := len(sentences[j])
		if total > 0 {
			cost++
		}
		if total+cost > budget {
			break
		}
		window = append([]string{sentences[j]}, window...)
		total += cost
	}
	return window, total
}

// splitSentences splits text on sentence boundaries, keeping the
// terminating punctuation with each sentence. Trailing text after the
// last terminator is kept as a final unit, and text without any sentence
// endings comes back whole. Units whose token estimate alone exceeds
// maxTokens are hard-split so the chunk budget always holds.
func splitSentences(text string, maxTokens int) []string {
	var units []string
	last := 0
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		units = append(units, text[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		units = append(units, text[last:])
	}

	sentences := make([]string, 0, len(units))
	for _, u := range units {
		s := strings.TrimSpace(u)
		if s == "" {
			continue
		}
		if EstimateTokens(s) > maxTokens {
			sentences = append(sentences, hardSplit(s, maxTokens)...)
			continue
		}
		sentences = append(sentences, s)
	}
	return sentences
}

// hardSplit cuts an oversized unit into windows of at most maxTokens
// worth of bytes, preferring whitespace boundaries and never cutting
// mid-rune.
func hardSplit(text string, maxTokens int) []string {
	maxChars := maxTokens * 4

	var parts []string
	remaining := text
	for remaining != "" {
		if len(remaining) <= maxChars {
			if p := strings.TrimSpace(remaining); p != "" {
				parts = append(parts, p)
			}
			break
		}

		cut := maxChars
		for cut > 0 && !utf8.RuneStart(remaining[cut]) {
			cut--
		}
		for i := cut; i > maxChars/2; i-- {
			if remaining[i-1] == ' ' {
				cut = i
				break
			}
		}

		if p := strings.TrimSpace(remaining[:cut]); p != "" {
			parts = append(parts, p)
		}
		remaining = remaining[cut:]
	}
	return parts
}
