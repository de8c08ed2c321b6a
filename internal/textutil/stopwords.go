
package textutil

type StopWords map[string]struct{}

var english = []string{
	"the", "and", "of", "to", "in", "a", "for", "is", "on", "with", "as",
	"by", "at", "from", "that", "this", "it", "an", "be", "or", "are", "was",
	"will", "has", "have", "had", "but", "not", "your", "you", "we", "our",
	"can", "all", "any", "more", "most", "into", "out", "up", "get", "its",
	"their", "they", "them", "than", "then", "there", "these", "those",
	"what", "when", "where", "which", "who", "why", "how", "each", "every",
	"just", "also", "only", "over", "such", "very", "about", "after",
	"before", "while", "would", "could", "should", "been", "being", "were",
	"does", "doing", "make", "makes", "made", "like", "use", "using", "used",
	"one", "two", "new", "now", "no", "yes", "so", "if", "do", "my", "me",
	"us", "via", "per", "own", "even", "much", "many", "other", "some",
	"without", "within", "across", "through", "both", "here", "well",
	"need", "needs", "want", "help", "helps", "easy", "easily", "simple",
	"best", "great", "free", "way", "ways", "let", "lets",
}

// domain terms that appear on nearly every listing and carry no signal.
var domain = []string{
	"app", "apps", "shopify", "store", "stores", "shop", "shops", "online",
	"merchant", "merchants", "customer", "customers", "business",
	"businesses", "product", "products", "ecommerce", "plan", "plans",
	"install", "features", "feature", "support", "click", "minutes",
	"setup", "seamless", "seamlessly", "powerful", "boost", "increase",
}

// DefaultStopWords returns the combined general-English and domain list.
func DefaultStopWords() StopWords {
	return NewStopWords(english...).With(domain...)
}

func NewStopWords(words ...string) StopWords {
	s := make(StopWords, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// With returns a copy of s extended with words, normalized the same way
// tokens are.
func (s StopWords) With(words ...string) StopWords {
	out := make(StopWords, len(s)+len(words))
	for w := range s {
		out[w] = struct{}{}
	}
	for _, w := range words {
		if n := Normalize(w); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}

func (s StopWords) Contains(w string) bool {
	_, ok := s[w]
	return ok
}
