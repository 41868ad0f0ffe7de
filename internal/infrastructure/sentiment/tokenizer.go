package sentiment

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

const (
	unkToken = "[UNK]"
	clsToken = "[CLS]"
	sepToken = "[SEP]"
	padToken = "[PAD]"

	// Words longer than this are mapped to [UNK] wholesale, matching the
	// reference WordPiece implementation.
	maxWordChars = 100
)

// Tokenizer is a lowercasing WordPiece tokenizer over a BERT-style vocab
// file (one token per line, id = line number).
type Tokenizer struct {
	vocab map[string]int64
	unkID int64
	clsID int64
	sepID int64
	padID int64
}

// LoadTokenizer reads the vocab file and resolves the special token ids. All
// four special tokens must be present.
func LoadTokenizer(path string) (*Tokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r\n")
		vocab[token] = id
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}

	t := &Tokenizer{vocab: vocab}
	for _, special := range []struct {
		token string
		dst   *int64
	}{
		{unkToken, &t.unkID},
		{clsToken, &t.clsID},
		{sepToken, &t.sepID},
		{padToken, &t.padID},
	} {
		got, ok := vocab[special.token]
		if !ok {
			return nil, fmt.Errorf("vocab missing %s", special.token)
		}
		*special.dst = got
	}

	return t, nil
}

// Encode converts text into fixed-length input ids and an attention mask.
// Over-length input is silently truncated; short input is padded with [PAD].
// The empty string yields just [CLS][SEP] plus padding.
func (t *Tokenizer) Encode(text string, seqLen int) (ids, mask []int64) {
	pieces := t.wordpiece(basicTokenize(text))

	// Reserve room for [CLS] and [SEP].
	if len(pieces) > seqLen-2 {
		pieces = pieces[:seqLen-2]
	}

	ids = make([]int64, 0, seqLen)
	ids = append(ids, t.clsID)
	ids = append(ids, pieces...)
	ids = append(ids, t.sepID)

	mask = make([]int64, seqLen)
	for i := range ids {
		mask[i] = 1
	}
	for len(ids) < seqLen {
		ids = append(ids, t.padID)
	}

	return ids, mask
}

// wordpiece greedily matches the longest vocab entry, prefixing
// continuations with "##".
func (t *Tokenizer) wordpiece(words []string) []int64 {
	var out []int64
	for _, word := range words {
		runes := []rune(word)
		if len(runes) > maxWordChars {
			out = append(out, t.unkID)
			continue
		}

		var sub []int64
		start := 0
		ok := true
		for start < len(runes) {
			end := len(runes)
			var match int64 = -1
			for end > start {
				candidate := string(runes[start:end])
				if start > 0 {
					candidate = "##" + candidate
				}
				if id, found := t.vocab[candidate]; found {
					match = id
					break
				}
				end--
			}
			if match < 0 {
				ok = false
				break
			}
			sub = append(sub, match)
			start = end
		}

		if ok {
			out = append(out, sub...)
		} else {
			out = append(out, t.unkID)
		}
	}
	return out
}

// basicTokenize lowercases, splits on whitespace and breaks punctuation into
// standalone tokens.
func basicTokenize(text string) []string {
	text = strings.ToLower(text)

	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return words
}
