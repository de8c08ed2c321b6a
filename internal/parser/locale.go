
package parser

import (
	"strings"
	"unicode"
)

// Canonical pricing hints.
const (
	HintFree          = "Free"
	HintFreeToInstall = "Free to install"
	HintFreeTrial     = "Free trial available"
	HintFreePlan      = "Free plan available"
)

const currencySymbols = "$€£¥₹₩₺₽"

var englishPrefixes = []string{"free", "from", "paid", "price", "starting"}

// word lists per meaning across the locales the store is served in. Latin
// words are matched on lower-cased text; CJK words are matched as
// substrings.
var (
	freeWords = []string{
		"free", "kostenlos", "gratuit", "gratis", "gratuito", "gratuita", "grátis",
		"gratuite", "darmowy", "darmowa", "ücretsiz", "miễn phí", "gratuiti",
		"無料", "免费", "免費", "무료",
	}
	trialWords = []string{
		"trial", "test", "testversion", "essai", "prueba", "teste", "avaliação",
		"prova", "proef", "proefperiode", "deneme", "dùng thử",
		"体験", "トライアル", "试用", "試用", "체험",
	}
	planWords = []string{
		"plan", "tarif", "forfait", "plano", "piano", "abonnement", "paket",
		"gói", "プラン", "套餐", "方案", "方案可用", "플랜", "요금제",
	}
	installWords = []string{
		"install", "instal", "installation", "instalación", "instalação",
		"installazione", "installatie", "kurulum", "cài đặt",
		"インストール", "安装", "安裝", "설치",
	}
)

// NormalizePricingHint maps a localized pricing hint onto the English
// vocabulary. Hints carrying a currency symbol or already in English, and
// hints it does not recognize, pass through unchanged.
func NormalizePricingHint(hint string) string {
	h := clean(hint)
	if h == "" {
		return h
	}
	if strings.ContainsAny(h, currencySymbols) || hasEnglishPrefix(h) {
		return h
	}
	lower := strings.ToLower(h)
	if !containsWord(lower, freeWords) {
		return h
	}
	switch {
	case containsWord(lower, trialWords):
		return HintFreeTrial
	case containsWord(lower, planWords):
		return HintFreePlan
	case containsWord(lower, installWords):
		return HintFreeToInstall
	default:
		return HintFree
	}
}

func hasEnglishPrefix(h string) bool {
	lower := strings.ToLower(h)
	for _, p := range englishPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// looksLikePricingHint reports whether a card text fragment is a price or
// pricing hint in any known locale.
func looksLikePricingHint(s string) bool {
	if s == "" || len([]rune(s)) > 60 {
		return false
	}
	if strings.ContainsAny(s, currencySymbols) {
		return true
	}
	return containsWord(strings.ToLower(s), freeWords)
}

func containsWord(text string, words []string) bool {
	for _, w := range words {
		if isCJK(w) {
			if strings.Contains(text, w) {
				return true
			}
			continue
		}
		if containsLatinWord(text, w) {
			return true
		}
	}
	return false
}

// containsLatinWord matches w as a word prefix, so "testversion" and
// "installation" are found by "test" and "install".
func containsLatinWord(text, w string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], w)
		if j < 0 {
			return false
		}
		at := i + j
		if at == 0 || !isLetterBefore(text[:at]) {
			return true
		}
		i = at + len(w)
	}
}

func isLetterBefore(prefix string) bool {
	r := []rune(prefix)
	return unicode.IsLetter(r[len(r)-1])
}

func isCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			return true
		}
	}
	return false
}
