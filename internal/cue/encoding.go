package cue

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	xunicode "golang.org/x/text/encoding/unicode"
)

const (
	// EncodingUTF8 is reported for UTF-8 sheets with or without a byte order mark.
	EncodingUTF8 = "utf-8"
	// EncodingUTF16LE is reported for sheets starting with a little-endian UTF-16 BOM.
	EncodingUTF16LE = "utf-16le"
	// EncodingUTF16BE is reported for sheets starting with a big-endian UTF-16 BOM.
	EncodingUTF16BE = "utf-16be"
)

// Penalties added by implausibility for every suspicious rune or word.
const (
	controlPenalty       = 10
	privateUsePenalty    = 10
	mixedScriptPenalty   = 5
	halfwidthKanaPenalty = 3
	accentedWordPenalty  = 3
	legacySignPenalty    = 3
	symbolPenalty        = 1

	// accentedWordMinLength is the length from which an all-accented Latin word is suspicious.
	accentedWordMinLength = 3
)

//nolint:gochecknoglobals // Immutable byte order marks.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeResult is the UTF-8 text of a sheet and the encoding it was stored in.
type DecodeResult struct {
	// Text is the decoded sheet.
	Text string
	// Encoding is the WHATWG name of the detected encoding.
	Encoding string
}

type namedEncoding struct {
	name     string
	encoding encoding.Encoding
}

// Decoder detects the text encoding of CUE sheets.
type Decoder struct {
	fallbacks []namedEncoding
}

// NewDecoder creates a decoder that tries the given legacy charsets when a sheet is not Unicode.
// Names are WHATWG labels such as "windows-1251" or "shift_jis".
func NewDecoder(fallbacks []string) (*Decoder, error) {
	decoder := &Decoder{
		fallbacks: make([]namedEncoding, 0, len(fallbacks)),
	}

	for _, label := range fallbacks {
		enc, err := htmlindex.Get(strings.TrimSpace(label))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
		}

		name, err := htmlindex.Name(enc)
		if err != nil {
			name = strings.ToLower(strings.TrimSpace(label))
		}

		decoder.fallbacks = append(decoder.fallbacks, namedEncoding{name: name, encoding: enc})
	}

	return decoder, nil
}

// Decode converts raw sheet bytes into UTF-8 text.
// A byte order mark wins, then valid UTF-8, then the most plausible fallback charset.
func (d *Decoder) Decode(data []byte) (*DecodeResult, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8) && utf8.Valid(data[len(bomUTF8):]):
		return &DecodeResult{Text: string(data[len(bomUTF8):]), Encoding: EncodingUTF8}, nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeUTF16(data, xunicode.LittleEndian, EncodingUTF16LE)
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeUTF16(data, xunicode.BigEndian, EncodingUTF16BE)
	case utf8.Valid(data):
		return &DecodeResult{Text: string(data), Encoding: EncodingUTF8}, nil
	}

	var (
		best        *DecodeResult
		bestPenalty int
	)

	for _, candidate := range d.fallbacks {
		decoded, err := candidate.encoding.NewDecoder().Bytes(data)
		if err != nil || bytes.ContainsRune(decoded, utf8.RuneError) {
			continue
		}

		text := string(decoded)

		// Strict comparison keeps the earlier fallback on ties.
		penalty := implausibility(text)
		if best == nil || penalty < bestPenalty {
			best = &DecodeResult{Text: text, Encoding: candidate.name}
			bestPenalty = penalty
		}
	}

	if best == nil {
		return nil, ErrUndecodable
	}

	return best, nil
}

func decodeUTF16(data []byte, endianness xunicode.Endianness, name string) (*DecodeResult, error) {
	decoded, err := xunicode.UTF16(endianness, xunicode.ExpectBOM).NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUndecodable, name, err)
	}

	return &DecodeResult{Text: string(decoded), Encoding: name}, nil
}

// implausibility scores how unlikely text is to be a correct decoding. Lower is better.
func implausibility(text string) int {
	var (
		penalty int
		word    []rune
	)

	flush := func() {
		penalty += wordPenalty(word)
		word = word[:0]
	}

	runes := []rune(text)

	for i, r := range runes {
		if isHalfwidthKatakana(r) {
			penalty += halfwidthKanaPenalty
		}

		if isLegacyWesternSign(r) && hasASCIILetterNeighbor(runes, i) {
			penalty += legacySignPenalty
		}

		if unicode.IsLetter(r) || unicode.IsMark(r) {
			word = append(word, r)

			continue
		}

		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case unicode.IsControl(r):
			penalty += controlPenalty
		case unicode.Is(unicode.Co, r):
			penalty += privateUsePenalty
		case r > unicode.MaxASCII && (unicode.IsSymbol(r) || unicode.IsPunct(r)):
			penalty += symbolPenalty
		}

		flush()
	}

	flush()

	return penalty
}

// script groups letters by writing system; Japanese kana and Han share one group.
type script int

const (
	scriptOther script = iota
	scriptLatin
	scriptCyrillic
	scriptGreek
	scriptCJK
	scriptHangul
	scriptArabic
	scriptHebrew
)

func scriptOf(r rune) script {
	switch {
	case unicode.Is(unicode.Latin, r):
		return scriptLatin
	case unicode.Is(unicode.Cyrillic, r):
		return scriptCyrillic
	case unicode.Is(unicode.Greek, r):
		return scriptGreek
	case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana):
		return scriptCJK
	case unicode.Is(unicode.Hangul, r):
		return scriptHangul
	case unicode.Is(unicode.Arabic, r):
		return scriptArabic
	case unicode.Is(unicode.Hebrew, r):
		return scriptHebrew
	default:
		return scriptOther
	}
}

func wordPenalty(word []rune) int {
	if len(word) == 0 {
		return 0
	}

	var (
		scripts  = make(map[script]struct{}, 2)
		hasASCII bool
	)

	for _, r := range word {
		if r <= unicode.MaxASCII {
			hasASCII = true
		}

		// Combining marks and the prolonged sound mark belong to any script.
		if unicode.IsMark(r) || r == 'ー' {
			continue
		}

		scripts[scriptOf(r)] = struct{}{}
	}

	if len(scripts) > 1 {
		return mixedScriptPenalty
	}

	if _, isLatin := scripts[scriptLatin]; isLatin && !hasASCII && len(word) >= accentedWordMinLength {
		return accentedWordPenalty
	}

	return 0
}

// isLegacyWesternSign reports runes that windows-1252 places at 0x80-0x9F, apart from
// quotes, dashes, the ellipsis and the euro sign. Lead bytes of multi-byte charsets land there.
func isLegacyWesternSign(r rune) bool {
	switch r {
	case 'ƒ', '‚', '„', '†', '‡', 'ˆ', '‰', 'Š', '‹', 'Œ', 'Ž', '˜', 'š', '›', 'œ', 'ž', 'Ÿ':
		return true
	default:
		return false
	}
}

func hasASCIILetterNeighbor(runes []rune, i int) bool {
	isASCIILetter := func(r rune) bool {
		return r <= unicode.MaxASCII && unicode.IsLetter(r)
	}

	return (i > 0 && isASCIILetter(runes[i-1])) || (i+1 < len(runes) && isASCIILetter(runes[i+1]))
}

func isHalfwidthKatakana(r rune) bool {
	return r >= '｡' && r <= 'ﾟ'
}
