package knowledge

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxSnippetRunes = 1500
	maxCosts        = 5
	maxTools        = 5
	maxLinks        = 3
	minTokenRunes   = 2
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"what": true, "how": true, "where": true, "when": true, "why": true,
	"to": true, "of": true, "in": true, "for": true, "on": true,
	"and": true, "or": true, "but": true, "with": true, "it": true,
	"my": true, "not": true, "does": true, "doesn't": true, "won't": true,
}

// tokenize lower-cases text and splits it on anything that is not a letter,
// digit or apostrophe. Stop words and single runes are dropped.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
	var out []string
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if utf8.RuneCountInString(f) < minTokenRunes || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// weakPrefix is the leading part of a token used for partial matches: half
// the token, and never shorter than two runes.
func weakPrefix(token string) string {
	runes := []rune(token)
	n := len(runes) / 2
	if n < minTokenRunes {
		n = minTokenRunes
	}
	if n >= len(runes) {
		return token
	}
	return string(runes[:n])
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var headingPattern = regexp.MustCompile(`^\s*(?:#{1,6}\s+\S.*|【[^】]+】.*|■.*|(?i:case)\s*\d+\s*[:：].*)$`)

type segment struct {
	heading string
	body    string
}

// splitSegments cuts content into heading-delimited sections. Content with no
// headings is one segment.
func splitSegments(content string) []segment {
	lines := strings.Split(content, "\n")
	var segments []segment
	var current *segment
	var body []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if current != nil {
			current.body = text
			segments = append(segments, *current)
		} else if text != "" {
			segments = append(segments, segment{body: text})
		}
		body = body[:0]
	}

	for _, line := range lines {
		if headingPattern.MatchString(line) {
			flush()
			current = &segment{heading: cleanHeading(line)}
			body = append(body, line)
			continue
		}
		body = append(body, line)
	}
	flush()

	if len(segments) == 0 {
		return []segment{{body: strings.TrimSpace(content)}}
	}
	return segments
}

func cleanHeading(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "#■ ")
	line = strings.TrimPrefix(line, "【")
	line = strings.Replace(line, "】", " ", 1)
	return strings.TrimSpace(line)
}

var (
	costPattern = regexp.MustCompile(`(?:¥\s?\d[\d,]*|\d{1,3}(?:,\d{3})+(?:万)?円|\d+(?:\.\d+)?(?:万|千)?円)`)
	toolPattern = regexp.MustCompile(`「([^」\n]{1,40})」|『([^』\n]{1,40})』|"([^"\n]{2,40})"|“([^”\n]{2,40})”`)
	linkPattern = regexp.MustCompile(`https?://[^\s<>"'」』）)\]]+`)
)

type extraction struct {
	costs []string
	tools []string
	links []string
}

func extract(text string) extraction {
	var ex extraction
	for _, m := range costPattern.FindAllString(text, -1) {
		ex.costs = appendCapped(ex.costs, strings.TrimSpace(m), maxCosts)
	}
	for _, m := range toolPattern.FindAllStringSubmatch(text, -1) {
		for _, group := range m[1:] {
			if group != "" {
				ex.tools = appendCapped(ex.tools, strings.TrimSpace(group), maxTools)
			}
		}
	}
	for _, m := range linkPattern.FindAllString(text, -1) {
		ex.links = appendCapped(ex.links, strings.TrimRight(m, ".,;:、。"), maxLinks)
	}
	return ex
}

func (ex extraction) merge(other extraction) extraction {
	out := extraction{
		costs: append([]string(nil), ex.costs...),
		tools: append([]string(nil), ex.tools...),
		links: append([]string(nil), ex.links...),
	}
	for _, v := range other.costs {
		out.costs = appendCapped(out.costs, v, maxCosts)
	}
	for _, v := range other.tools {
		out.tools = appendCapped(out.tools, v, maxTools)
	}
	for _, v := range other.links {
		out.links = appendCapped(out.links, v, maxLinks)
	}
	return out
}

// appendCapped appends v unless it is empty, already present, or list is full.
func appendCapped(list []string, v string, limit int) []string {
	if v == "" || len(list) >= limit {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// normalizeForDedup reduces content to a comparison key.
func normalizeForDedup(content string) string {
	content = strings.ToLower(content)
	content = strings.Join(strings.Fields(content), " ")
	return truncateRunes(content, 200)
}
