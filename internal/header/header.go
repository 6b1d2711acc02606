// Package header is the minimal keyword/value header the table codec
// reads its metadata from and regenerates on every structural update.
package header

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrBadCard = errors.New("header: malformed card")

// Card is one keyword record. Value is nil for commentary cards, otherwise
// one of int64, float64, string or bool.
type Card struct {
	Key     string
	Value   any
	Comment string
}

// Header is an ordered list of cards with unique value keywords.
type Header struct {
	cards []Card
}

func New(cards ...Card) *Header {
	h := &Header{}
	for _, c := range cards {
		h.SetComment(c.Key, c.Value, c.Comment)
	}
	return h
}

func (h *Header) Len() int { return len(h.cards) }

func (h *Header) Cards() []Card {
	out := make([]Card, len(h.cards))
	copy(out, h.cards)
	return out
}

func (h *Header) Keys() []string {
	out := make([]string, 0, len(h.cards))
	for _, c := range h.cards {
		out = append(out, c.Key)
	}
	return out
}

func (h *Header) index(key string) int {
	key = strings.ToUpper(key)
	for i, c := range h.cards {
		if c.Key == key && c.Value != nil {
			return i
		}
	}
	return -1
}

func (h *Header) Has(key string) bool { return h.index(key) >= 0 }

func (h *Header) Get(key string) (any, bool) {
	i := h.index(key)
	if i < 0 {
		return nil, false
	}
	return h.cards[i].Value, true
}

// Int returns an integer keyword; integral floats are accepted.
func (h *Header) Int(key string) (int64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		if x == math.Trunc(x) {
			return int64(x), true
		}
	}
	return 0, false
}

// IntOr returns the integer keyword or def when absent.
func (h *Header) IntOr(key string, def int64) int64 {
	if v, ok := h.Int(key); ok {
		return v
	}
	return def
}

func (h *Header) Float(key string) (float64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// String returns a keyword rendered as text, whatever its type.
func (h *Header) String(key string) (string, bool) {
	v, ok := h.Get(key)
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return formatValue(v), true
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case uint8:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

// Set updates key in place, or appends it.
func (h *Header) Set(key string, v any) {
	h.SetComment(key, v, "")
}

func (h *Header) SetComment(key string, v any, comment string) {
	key = strings.ToUpper(strings.TrimSpace(key))
	v = normalize(v)
	if v == nil {
		h.cards = append(h.cards, Card{Key: key, Comment: comment})
		return
	}
	if i := h.index(key); i >= 0 {
		h.cards[i].Value = v
		if comment != "" {
			h.cards[i].Comment = comment
		}
		return
	}
	h.cards = append(h.cards, Card{Key: key, Value: v, Comment: comment})
}

// SetAfter inserts key right after anchor when key is new; otherwise it
// behaves like Set.
func (h *Header) SetAfter(key string, v any, anchor string) {
	if h.Has(key) {
		h.Set(key, v)
		return
	}
	a := h.index(anchor)
	if a < 0 {
		h.Set(key, v)
		return
	}
	c := Card{Key: strings.ToUpper(key), Value: normalize(v)}
	h.cards = append(h.cards, Card{})
	copy(h.cards[a+2:], h.cards[a+1:])
	h.cards[a+1] = c
}

func (h *Header) Delete(key string) bool {
	i := h.index(key)
	if i < 0 {
		return false
	}
	h.cards = append(h.cards[:i], h.cards[i+1:]...)
	return true
}

// DeleteFunc removes every card whose keyword matches.
func (h *Header) DeleteFunc(match func(key string) bool) int {
	kept := h.cards[:0]
	n := 0
	for _, c := range h.cards {
		if match(c.Key) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	h.cards = kept
	return n
}

func (h *Header) Copy() *Header {
	return &Header{cards: h.Cards()}
}

// Extend merges other into h. With update set, keywords already in h take
// the other's value; otherwise they are kept.
func (h *Header) Extend(other *Header, update bool) {
	for _, c := range other.cards {
		if c.Value != nil && h.Has(c.Key) && !update {
			continue
		}
		h.SetComment(c.Key, c.Value, c.Comment)
	}
}

func (h *Header) GoString() string {
	return fmt.Sprintf("header.Header{%d cards}", len(h.cards))
}
