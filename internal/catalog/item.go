package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Item is one restaurant row. Items are immutable after load.
type Item struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Key        string            `json:"-"`
	Tags       string            `json:"tags"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Catalog is the ordered, fixed-size item table with its name lookup
type Catalog struct {
	items       []Item
	index       map[string]int
	names       []string
	fingerprint string
}

// NormalizeKey turns a display name into its lookup key
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(name)))
}

// New builds a catalog from validated rows. Row order is kept: it decides
// ranking ties and which row wins a duplicate name (the first one).
func New(rows []Row) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		items: make([]Item, len(rows)),
		index: make(map[string]int, len(rows)),
	}
	digest := sha256.New()
	seenNames := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, err
		}
		item := Item{
			ID:         i,
			Name:       row.Name,
			Key:        NormalizeKey(row.Name),
			Tags:       row.Tags,
			Attributes: row.Attributes,
		}
		c.items[i] = item

		if _, exists := c.index[item.Key]; !exists {
			c.index[item.Key] = i
		}
		if _, exists := seenNames[item.Name]; !exists {
			seenNames[item.Name] = struct{}{}
			c.names = append(c.names, item.Name)
		}

		digest.Write([]byte(item.Name))
		digest.Write([]byte{0})
		digest.Write([]byte(item.Tags))
		digest.Write([]byte{0})
		writeAttributes(digest, item.Attributes)
	}

	sort.Strings(c.names)
	c.fingerprint = hex.EncodeToString(digest.Sum(nil))
	return c, nil
}

// writeAttributes feeds the attribute pairs to h in key order
func writeAttributes(h hash.Hash, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(attrs[k]))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func (c *Catalog) Item(i int) Item {
	return c.items[i]
}

// Items returns a copy of the item table
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Tags returns every item's tag text in catalog order
func (c *Catalog) Tags() []string {
	out := make([]string, len(c.items))
	for i, item := range c.items {
		out[i] = item.Tags
	}
	return out
}

// Lookup resolves a display name (any case, surrounding blanks) to a row
func (c *Catalog) Lookup(name string) (int, bool) {
	i, ok := c.index[NormalizeKey(name)]
	return i, ok
}

// Names returns the unique display names in lexicographic order
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Fingerprint identifies the catalog contents: names, tags and attributes
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}
