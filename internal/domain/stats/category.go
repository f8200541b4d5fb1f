package stats

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category is a family of questions answered by a deterministic computation.
type Category string

const (
	Descriptive  Category = "descriptive"
	Correlation  Category = "correlation"
	Outliers     Category = "outliers"
	Distribution Category = "distribution"
	TopValues    Category = "top_values"
	Missing      Category = "missing"
)

// keywords are accent-free word prefixes. A multi-word entry must match consecutive words.
var keywords = map[Category][]string{
	Descriptive: {
		"descritiv", "estatistic", "resum", "media", "median", "desvio", "minimo", "maximo",
		"quartil", "describe", "summar", "mean", "std", "statistic", "basic", "overview",
		"visao geral", "analise completa",
	},
	Correlation: {
		"correlac", "correlat", "relacao entre", "relacionam", "heatmap", "mapa de calor",
	},
	Outliers: {
		"outlier", "atipic", "anomal", "discrepan", "iqr", "boxplot", "box plot",
	},
	Distribution: {
		"distribu", "histogram", "densidade", "density",
	},
	TopValues: {
		"frequen", "mais comu", "top", "ranking", "value count", "contagem", "moda", "categoric",
		"most common",
	},
	Missing: {
		"faltant", "ausent", "nulo", "nulos", "null", "missing", "vazio", "vazios",
		"valores em falta", "dados em falta", "nan",
	},
}

// order fixes the category sequence of every result.
var order = []Category{Descriptive, Correlation, Outliers, Distribution, TopValues, Missing}

// Detect returns the categories whose keywords occur in question, in a fixed order.
func Detect(question string) []Category {
	text := " " + strings.Join(Words(question), " ") + " "
	var out []Category
	for _, cat := range order {
		for _, kw := range keywords[cat] {
			if strings.Contains(text, " "+kw) {
				out = append(out, cat)
				break
			}
		}
	}
	return out
}

// Has reports whether cats contains c.
func Has(cats []Category, c Category) bool {
	for _, x := range cats {
		if x == c {
			return true
		}
	}
	return false
}

// Fold lowercases s and removes diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Words splits a folded s into letter/digit runs.
func Words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
