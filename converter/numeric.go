package converter

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Kana number words, longest-match first within each scan step.
var numericUnits = []struct {
	kana  string
	value int64
}{
	{"きゅう", 9},
	{"いち", 1},
	{"さん", 3},
	{"よん", 4},
	{"ろく", 6},
	{"なな", 7},
	{"しち", 7},
	{"はち", 8},
	{"れい", 0},
	{"ぜろ", 0},
	{"に", 2},
	{"し", 4},
	{"ご", 5},
	{"く", 9},
}

var numericMultipliers = []struct {
	kana  string
	value int64
	big   bool
}{
	{"じゅう", 10, false},
	{"ひゃく", 100, false},
	{"びゃく", 100, false},
	{"ぴゃく", 100, false},
	{"せん", 1000, false},
	{"ぜん", 1000, false},
	{"まん", 10000, true},
	{"おく", 100000000, true},
}

// parseJapaneseNumber reads a kana number expression like にじゅうさん.
// Returns false if any part of the reading is not numeric.
func parseJapaneseNumber(reading string) (int64, bool) {
	if reading == "" {
		return 0, false
	}
	rest := reading
	var total, section, current int64
	matchedAny := false
	sawDigit := false

	for rest != "" {
		matched := false
		for _, m := range numericMultipliers {
			if strings.HasPrefix(rest, m.kana) {
				if m.big {
					section += current
					if section == 0 {
						section = 1
					}
					total += section * m.value
					section = 0
				} else {
					if current == 0 {
						current = 1
					}
					section += current * m.value
				}
				current = 0
				rest = rest[len(m.kana):]
				matched = true
				break
			}
		}
		if matched {
			matchedAny = true
			continue
		}
		for _, u := range numericUnits {
			if strings.HasPrefix(rest, u.kana) {
				if sawDigit && current != 0 {
					// Two bare digit words in a row (e.g. にさん) is not
					// a number reading.
					return 0, false
				}
				current = u.value
				sawDigit = true
				rest = rest[len(u.kana):]
				matched = true
				break
			}
		}
		if !matched {
			return 0, false
		}
		matchedAny = true
		sawDigit = current != 0 || sawDigit
	}
	if !matchedAny {
		return 0, false
	}
	return total + section + current, true
}

var kanjiDigits = []string{"〇", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

// numberToKanji renders n with positional kanji numerals (二十三 style).
func numberToKanji(n int64) string {
	if n == 0 {
		return "〇"
	}
	var b strings.Builder
	bigRanks := []struct {
		value int64
		kanji string
	}{
		{100000000, "億"},
		{10000, "万"},
	}
	rest := n
	for _, rank := range bigRanks {
		if rest >= rank.value {
			b.WriteString(smallNumberToKanji(rest / rank.value))
			b.WriteString(rank.kanji)
			rest %= rank.value
		}
	}
	if rest > 0 {
		b.WriteString(smallNumberToKanji(rest))
	}
	return b.String()
}

// smallNumberToKanji renders 1..9999. The multiplier kanji stand alone
// for a leading 一 (十 not 一十).
func smallNumberToKanji(n int64) string {
	var b strings.Builder
	ranks := []struct {
		value int64
		kanji string
	}{
		{1000, "千"},
		{100, "百"},
		{10, "十"},
	}
	for _, rank := range ranks {
		d := n / rank.value
		if d > 0 {
			if d > 1 {
				b.WriteString(kanjiDigits[d])
			}
			b.WriteString(rank.kanji)
			n %= rank.value
		}
	}
	if n > 0 {
		b.WriteString(kanjiDigits[n])
	}
	return b.String()
}

func numberToHalfwidth(n int64) string {
	return strconv.FormatInt(n, 10)
}

func numberToFullwidth(n int64) string {
	return width.Widen.String(strconv.FormatInt(n, 10))
}
