package catalog

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// tagPattern matches one complete start, end or self-closing tag. A '<'
// that does not open such a tag is ordinary text.
var tagPattern = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9-]*(?:\s+[^<>]*)?/?>`)

// CleanTags reduces scraped tag text to plain words for indexing.
// Complete tags are replaced by a blank, entities are resolved and
// whitespace is collapsed. Text between tags is always kept, including
// the body of script and style elements, so no word of the input is lost.
func CleanTags(tags string) string {
	if strings.ContainsRune(tags, '<') {
		tags = tagPattern.ReplaceAllString(tags, " ")
	}
	if strings.ContainsRune(tags, '&') {
		tags = html.UnescapeString(tags)
	}
	return strings.Join(strings.Fields(tags), " ")
}

// CleanAll applies CleanTags to every document
func CleanAll(docs []string) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = CleanTags(doc)
	}
	return out
}
