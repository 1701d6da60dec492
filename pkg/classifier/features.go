package classifier

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/yurifrl/txnclass/pkg/models"
)

// tokenRe matches the terms that enter a bag-of-words vocabulary: runs of
// two or more lowercase letters/digits, so single characters and
// punctuation never become features.
var tokenRe = regexp.MustCompile(`[a-z0-9]{2,}`)

func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// Featurizer holds the vocabularies fitted over the full row set. It is an
// explicit value: fitted once, then passed into every vectorization call,
// so train and predict rows always share feature dimensions.
type Featurizer struct {
	vendorVocab   map[string]int
	accountVocab  map[string]int
	locationVocab map[string]int
}

// FitFeaturizer builds the per-field vocabularies from every transaction,
// categorized or not.
func FitFeaturizer(txs []models.Transaction) *Featurizer {
	vendors := make([]string, len(txs))
	accounts := make([]string, len(txs))
	locations := make([]string, len(txs))
	for i, tx := range txs {
		vendors[i] = tx.Vendor
		accounts[i] = tx.Account
		locations[i] = tx.Location
	}

	return &Featurizer{
		vendorVocab:   buildVocab(vendors),
		accountVocab:  buildVocab(accounts),
		locationVocab: buildVocab(locations),
	}
}

func buildVocab(docs []string) map[string]int {
	seen := map[string]struct{}{}
	for _, doc := range docs {
		for _, term := range tokenize(doc) {
			seen[term] = struct{}{}
		}
	}

	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for i, term := range terms {
		vocab[term] = i
	}
	return vocab
}

// Dim is the width of the feature vector: amount, weekday, then one count
// column per vocabulary term.
func (f *Featurizer) Dim() int {
	return 2 + len(f.vendorVocab) + len(f.accountVocab) + len(f.locationVocab)
}

// Vector featurizes one transaction:
//
//	[amount, weekday(trans_date), vendor counts..., account counts..., location counts...]
//
// Weekday is 0 for Monday through 6 for Sunday. A missing amount is imputed
// as zero rather than fed to the model as NaN.
func (f *Featurizer) Vector(tx models.Transaction) []float64 {
	vec := make([]float64, f.Dim())

	amount := tx.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	vec[0] = amount
	vec[1] = float64((int(tx.TransDate.Weekday()) + 6) % 7)

	offset := 2
	countInto(vec, offset, f.vendorVocab, tx.Vendor)
	offset += len(f.vendorVocab)
	countInto(vec, offset, f.accountVocab, tx.Account)
	offset += len(f.accountVocab)
	countInto(vec, offset, f.locationVocab, tx.Location)

	return vec
}

func countInto(vec []float64, offset int, vocab map[string]int, text string) {
	for _, term := range tokenize(text) {
		if idx, ok := vocab[term]; ok {
			vec[offset+idx]++
		}
	}
}
