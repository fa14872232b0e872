package lintctx

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/dotcommander/classlint/internal/types"
)

// Signature hashes every element's tag, attributes, text and classes in
// authored order (with their combo flags), the parent map and the style
// hash. Anything role detection or rules read from the page feeds it, so
// a changed page never matches a cached snapshot.
func Signature(elements []types.ElementSnapshot, applied map[string][]types.AppliedClass, parents map[string]string, styleHash string) string {
	h := sha256.New()

	sorted := append([]types.ElementSnapshot(nil), elements...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, el := range sorted {
		var b strings.Builder
		b.WriteString("e\x00" + el.ID + "\x00" + el.TagName + "\x00" + el.TextContent + "\x00")
		b.WriteString(strings.Join(el.Classes, "\x01") + "\x00")

		combos := make(map[string]bool)
		for _, c := range applied[el.ID] {
			if c.IsCombo {
				combos[c.Name] = true
			}
		}
		for _, c := range el.Classes {
			if combos[c] {
				b.WriteString("c\x01" + c + "\x01")
			}
		}
		b.WriteString("\x00")

		keys := make([]string, 0, len(el.Attributes))
		for k := range el.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(k + "\x02" + el.Attributes[k] + "\x01")
		}
		b.WriteString("\n")
		h.Write([]byte(b.String()))
	}

	children := make([]string, 0, len(parents))
	for child := range parents {
		children = append(children, child)
	}
	sort.Strings(children)
	for _, child := range children {
		h.Write([]byte("p\x00" + child + "\x00" + parents[child] + "\n"))
	}

	h.Write([]byte("s\x00" + styleHash))
	return hex.EncodeToString(h.Sum(nil))
}
