package header

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const cardLen = 80

func formatValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "T"
		}
		return "F"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		s := strconv.FormatFloat(x, 'G', -1, 64)
		if !strings.ContainsAny(s, ".EN") {
			s += "."
		}
		return s
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Image renders the card as an 80-column card image.
func (c Card) Image() string {
	var b strings.Builder
	if c.Value == nil {
		fmt.Fprintf(&b, "%-8s%s", c.Key, c.Comment)
	} else {
		fmt.Fprintf(&b, "%-8s= ", c.Key)
		if s, ok := c.Value.(string); ok {
			q := "'" + strings.ReplaceAll(s, "'", "''")
			for len(q) < 9 {
				q += " "
			}
			fmt.Fprintf(&b, "%-20s", q+"'")
		} else {
			fmt.Fprintf(&b, "%20s", formatValue(c.Value))
		}
		if c.Comment != "" {
			b.WriteString(" / " + c.Comment)
		}
	}
	s := b.String()
	if len(s) < cardLen {
		s += strings.Repeat(" ", cardLen-len(s))
	}
	return s
}

// WriteText writes one card image per line, without END or block padding.
func (h *Header) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, c := range h.cards {
		if _, err := bw.WriteString(strings.TrimRight(c.Image(), " ") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadText parses card images, one per line. Reading stops at END.
func ReadText(r io.Reader) (*Header, error) {
	h := &Header{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		c, err := ParseCard(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if c.Key == "END" {
			break
		}
		h.cards = append(h.cards, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// ParseCard parses one card image.
func ParseCard(text string) (Card, error) {
	key := text
	if len(key) > 8 {
		key = key[:8]
	}
	c := Card{Key: strings.ToUpper(strings.TrimSpace(key))}
	if c.Key == "" {
		return Card{}, fmt.Errorf("%w: empty keyword", ErrBadCard)
	}
	if len(text) < 10 || text[8:10] != "= " {
		if len(text) > 8 {
			c.Comment = strings.TrimRight(text[8:], " ")
		}
		return c, nil
	}
	rest := strings.TrimLeft(text[10:], " ")
	if strings.HasPrefix(rest, "'") {
		var sb strings.Builder
		i := 1
		closed := false
		for i < len(rest) {
			if rest[i] == '\'' {
				if i+1 < len(rest) && rest[i+1] == '\'' {
					sb.WriteByte('\'')
					i += 2
					continue
				}
				closed = true
				i++
				break
			}
			sb.WriteByte(rest[i])
			i++
		}
		if !closed {
			return Card{}, fmt.Errorf("%w: unterminated string in %q", ErrBadCard, c.Key)
		}
		c.Value = strings.TrimRight(sb.String(), " ")
		c.Comment = comment(rest[i:])
		return c, nil
	}
	tok := rest
	if k := strings.Index(rest, "/"); k >= 0 {
		tok = rest[:k]
		c.Comment = comment(rest[k:])
	}
	tok = strings.TrimSpace(tok)
	switch {
	case tok == "T":
		c.Value = true
	case tok == "F":
		c.Value = false
	default:
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			c.Value = n
			break
		}
		f, err := strconv.ParseFloat(strings.Replace(tok, "D", "E", 1), 64)
		if err != nil {
			return Card{}, fmt.Errorf("%w: bad value %q for %s", ErrBadCard, tok, c.Key)
		}
		c.Value = f
	}
	return c, nil
}

func comment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "/")
	return strings.TrimSpace(s)
}
