package ingestion

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// Metadata keys attached to every upserted vector.
const (
	MetaText       = "text"
	MetaSource     = "source"
	MetaTitle      = "title"
	MetaChunkIndex = "chunk_index"
)

// InferTitle derives a human-readable title from a document file name:
// the extension is dropped, '_' and '-' become spaces, and each word is
// capitalised. "cloud_computing-basics.txt" becomes "Cloud Computing Basics".
func InferTitle(fileName string) string {
	stem := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// chunkMetadata builds the payload stored alongside a chunk in the remote index.
func chunkMetadata(source string, index int, text string) map[string]string {
	return map[string]string{
		MetaText:       text,
		MetaSource:     source,
		MetaTitle:      InferTitle(source),
		MetaChunkIndex: strconv.Itoa(index),
	}
}
