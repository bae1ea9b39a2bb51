// Package parser reads company briefs and batch task files.
package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/logoforge/internal/models"
)

var (
	h1Regex          = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	headingRegex     = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	headingLineRegex = regexp.MustCompile(`(?m)^#{1,6}\s+.+$`)
	bulletRegex      = regexp.MustCompile(`^\s*[-*+]\s+(.+)$`)
)

// Section is a heading and the text under it.
type Section struct {
	Level   int    // 1-6 for h1-h6
	Heading string // The heading text
	Content string // Content under this heading
}

// Brief is a parsed company brief document.
type Brief struct {
	models.CompanyBrief
	// Sections holds the body headings in document order.
	Sections []Section
}

// ParseBrief reads a markdown brief. YAML frontmatter fills the structured
// fields; body sections named after a field ("## Values", "## Tone") fill
// whatever the frontmatter left empty. The remaining body text becomes Notes.
func ParseBrief(content string) (*Brief, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	b := &Brief{}
	if fm != "" {
		if err := yaml.Unmarshal([]byte(fm), &b.CompanyBrief); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
	}

	if b.CompanyName == "" {
		if match := h1Regex.FindStringSubmatch(body); len(match) > 1 {
			b.CompanyName = strings.TrimSpace(match[1])
		}
	}

	var notes []string
	if pre := strings.TrimSpace(preamble(body)); pre != "" {
		notes = append(notes, pre)
	}
	b.Sections = parseSections(body)
	for _, s := range b.Sections {
		switch {
		case s.Content == "" || b.apply(s):
		case s.Level == 1:
			notes = append(notes, s.Content)
		default:
			notes = append(notes, s.Heading+":\n"+s.Content)
		}
	}
	b.Notes = strings.Join(notes, "\n\n")
	return b, nil
}

// splitFrontmatter separates a leading "---" YAML block from the body.
func splitFrontmatter(content string) (string, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		return "", content, nil
	}
	endIdx := strings.Index(content[3:], "\n---") - 1
	if endIdx < -1 {
		return "", "", fmt.Errorf("unterminated frontmatter")
	}
	fm := ""
	if endIdx > 0 {
		fm = content[4 : 4+endIdx]
	}
	rest := content[4+endIdx+4:]
	// Drop the rest of the closing delimiter line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		rest = ""
	}
	return fm, rest, nil
}

// preamble is the body text before the first heading.
func preamble(body string) string {
	if loc := headingLineRegex.FindStringIndex(body); loc != nil {
		return body[:loc[0]]
	}
	return body
}

// apply copies a section into the matching empty brief field.
func (b *Brief) apply(s Section) bool {
	key := strings.ToLower(s.Heading)
	switch {
	case strings.Contains(key, "industry"):
		setText(&b.Industry, s.Content)
	case strings.Contains(key, "audience"):
		setText(&b.TargetAudience, s.Content)
	case strings.Contains(key, "mission"):
		setText(&b.MissionStatement, s.Content)
	case strings.Contains(key, "tone") || strings.Contains(key, "personality"):
		setText(&b.Tone, s.Content)
	case strings.Contains(key, "value"):
		setList(&b.Values, s.Content)
	case strings.Contains(key, "color") || strings.Contains(key, "colour"):
		setList(&b.ColorPreferences, s.Content)
	case strings.Contains(key, "differentiator") || strings.Contains(key, "unique"):
		setList(&b.Differentiators, s.Content)
	default:
		return false
	}
	return true
}

func setText(dst *string, content string) {
	if *dst == "" {
		*dst = strings.TrimSpace(content)
	}
}

func setList(dst *[]string, content string) {
	if len(*dst) > 0 {
		return
	}
	*dst = listItems(content)
}

// listItems returns the bullet items of content, or its non-empty lines when
// there are no bullets.
func listItems(content string) []string {
	var bullets, lines []string
	for line := range strings.SplitSeq(content, "\n") {
		if m := bulletRegex.FindStringSubmatch(line); m != nil {
			bullets = append(bullets, strings.TrimSpace(m[1]))
		} else if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	if len(bullets) > 0 {
		return bullets
	}
	return lines
}

// parseSections extracts sections from markdown content.
func parseSections(content string) []Section {
	var sections []Section

	scanner := bufio.NewScanner(strings.NewReader(content))
	var current *Section
	var contentBuilder strings.Builder

	flushSection := func() {
		if current != nil {
			current.Content = strings.TrimSpace(contentBuilder.String())
			sections = append(sections, *current)
			contentBuilder.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if match := headingRegex.FindStringSubmatch(line); len(match) > 0 {
			flushSection()
			current = &Section{
				Level:   len(match[1]),
				Heading: strings.TrimSpace(match[2]),
			}
		} else if current != nil {
			contentBuilder.WriteString(line)
			contentBuilder.WriteString("\n")
		}
	}
	flushSection()

	return sections
}
