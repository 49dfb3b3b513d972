package grading

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WishlistEntry is one acceptable roll for an item. An empty Perks means any
// roll of the item is wanted.
type WishlistEntry struct {
	ItemHash uint32
	Perks    []uint32
	Notes    string
	Line     int
}

// Wishlist is a parsed roll wishlist.
type Wishlist struct {
	Source      string
	Title       string
	Description string
	Entries     []*WishlistEntry
	ByItemHash  map[uint32][]*WishlistEntry
	// Skipped counts lines that refer to every item (negative hashes); they
	// carry no per-item grade.
	Skipped int
}

// ParseError reports a malformed line in an external data file.
type ParseError struct {
	Source string
	Line   int // 0 when the error is not tied to a line
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("grading: %s:%d: %s", e.Source, e.Line, e.Msg)
	}
	return fmt.Sprintf("grading: %s: %s", e.Source, e.Msg)
}

const (
	prefixTitle       = "title:"
	prefixDescription = "description:"
	prefixEntry       = "dimwishlist:"
	prefixBlockNotes  = "//notes:"
	inlineNotes       = "#notes:"
)

// ParseWishlist reads the wishlist text format:
//
//	title:<text>
//	description:<text>
//	//notes:<text>          applies to following entries until a blank line
//	dimwishlist:item=<hash>&perks=<hash>,<hash>#notes:<text>
//
// Other lines starting with "//" are comments. Any other line is an error.
func ParseWishlist(r io.Reader, source string) (*Wishlist, error) {
	wl := &Wishlist{Source: source, ByItemHash: make(map[uint32][]*WishlistEntry)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	blockNotes := ""
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			blockNotes = ""
		case strings.HasPrefix(line, prefixTitle):
			wl.Title = strings.TrimSpace(line[len(prefixTitle):])
		case strings.HasPrefix(line, prefixDescription):
			wl.Description = strings.TrimSpace(line[len(prefixDescription):])
		case strings.HasPrefix(line, prefixBlockNotes):
			blockNotes = strings.TrimSpace(line[len(prefixBlockNotes):])
		case strings.HasPrefix(line, "//"):
		case strings.HasPrefix(line, prefixEntry):
			e, wildcard, err := parseEntry(line[len(prefixEntry):])
			if err != nil {
				return nil, &ParseError{Source: source, Line: lineNo, Msg: err.Error()}
			}
			if wildcard {
				wl.Skipped++
				continue
			}
			e.Line = lineNo
			if e.Notes == "" {
				e.Notes = blockNotes
			}
			wl.Entries = append(wl.Entries, e)
			wl.ByItemHash[e.ItemHash] = append(wl.ByItemHash[e.ItemHash], e)
		default:
			return nil, &ParseError{Source: source, Line: lineNo, Msg: fmt.Sprintf("unrecognized line %q", truncate(line, 40))}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Source: source, Line: lineNo + 1, Msg: err.Error()}
	}
	return wl, nil
}

func parseEntry(s string) (*WishlistEntry, bool, error) {
	e := &WishlistEntry{}
	if body, notes, ok := strings.Cut(s, inlineNotes); ok {
		s = body
		e.Notes = strings.TrimSpace(notes)
	}

	seenItem := false
	for _, kv := range strings.Split(s, "&") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, false, fmt.Errorf("expected key=value, got %q", kv)
		}
		switch key {
		case "item":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, false, fmt.Errorf("bad item hash %q", value)
			}
			if n < 0 {
				return nil, true, nil
			}
			if n > int64(^uint32(0)) {
				return nil, false, fmt.Errorf("item hash %q out of range", value)
			}
			e.ItemHash = uint32(n)
			seenItem = true
		case "perks":
			if value == "" {
				continue
			}
			for _, p := range strings.Split(value, ",") {
				h, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
				if err != nil {
					return nil, false, fmt.Errorf("bad perk hash %q", p)
				}
				e.Perks = append(e.Perks, uint32(h))
			}
		}
	}
	if !seenItem {
		return nil, false, fmt.Errorf("missing item=")
	}
	return e, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
