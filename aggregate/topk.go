// api/aggregate/topk.go
package aggregate

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"checkoutlens/api/models"
)

// DefaultTopK is the ranking depth the dashboard widgets use.
const DefaultTopK = 5

// TopGroupedCounts extracts the value at path from each event's payload and
// returns the k most frequent normalized keys, most frequent first, ties in
// first-seen order.
//
// A list-valued field is flattened one level: each element counts on its own.
// Grouping by the exact serialized list would bucket near-identical sessions
// apart, since two shoppers rarely hit the identical set of errors but
// frequently hit the identical individual error.
func TopGroupedCounts(events []models.FrictionEvent, path string, k int, humanize bool) []models.RankedCount {
	if k <= 0 {
		k = DefaultTopK
	}

	type bucket struct {
		key   string
		count uint64
		seen  int
	}

	buckets := make(map[string]*bucket)
	order := 0

	for _, ev := range events {
		for _, key := range extractKeys(ev.Data, path) {
			key = normalizeKey(key)
			if humanize {
				key = HumanizeFieldName(key)
			}
			if key == "" {
				continue
			}
			b, ok := buckets[key]
			if !ok {
				b = &bucket{key: key, seen: order}
				order++
				buckets[key] = b
			}
			b.count++
		}
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ranked = append(ranked, b)
	}

	// Insertion sort keeps the implementation obviously stable on seen order.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0; j-- {
			a, b := ranked[j-1], ranked[j]
			if b.count > a.count || (b.count == a.count && b.seen < a.seen) {
				ranked[j-1], ranked[j] = b, a
			} else {
				break
			}
		}
	}

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	results := make([]models.RankedCount, 0, len(ranked))
	for _, b := range ranked {
		results = append(results, models.RankedCount{Key: b.key, Count: b.count})
	}
	return results
}

// extractKeys resolves path against the serialized payload, flattening a
// list-valued result one level.
func extractKeys(data, path string) []string {
	res := gjson.Get(data, path)
	if !res.Exists() {
		return nil
	}

	if res.IsArray() {
		elems := res.Array()
		keys := make([]string, 0, len(elems))
		for _, el := range elems {
			if key := keyOf(el); key != "" {
				keys = append(keys, key)
			}
		}
		return keys
	}

	if key := keyOf(res); key != "" {
		return []string{key}
	}
	return nil
}

// keyOf turns one extracted value into a countable key. Objects identify
// themselves by name, falling back to id.
func keyOf(res gjson.Result) string {
	if res.IsObject() {
		if name := res.Get("name").String(); name != "" {
			return name
		}
		return res.Get("id").String()
	}
	if res.Type == gjson.Number {
		return strconv.FormatFloat(res.Num, 'f', -1, 64)
	}
	return res.String()
}

// normalizeKey trims whitespace and strips control characters.
func normalizeKey(key string) string {
	key = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, key)
	return strings.TrimSpace(key)
}

// HumanizeFieldName converts a form field identifier like "billing_email-2"
// into "Billing Email 2".
func HumanizeFieldName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', '[', ']':
			return ' '
		}
		return r
	}, name)

	words := strings.Fields(name)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
