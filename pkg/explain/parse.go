package explain

import "strings"

// section headers the model is instructed to emit. Matching is
// case-insensitive and tolerant of surrounding markup.
const (
	headerWhyGood   = "WHY IT LOOKED GOOD"
	headerWhyFailed = "WHY IT FAILED"
	headerConcept   = "CONCEPT"
	headerPattern   = "PATTERN"
)

// parseSections splits a sectioned coach response into its four parts.
// Lines before the first recognized header are ignored; continuation lines
// within a section are joined with single spaces. Missing sections parse as
// empty strings rather than failing, since a partially structured answer is
// still worth caching.
func parseSections(response string) (whyGood, whyFailed, concept, pattern string) {
	sections := map[string]*string{
		headerWhyGood:   &whyGood,
		headerWhyFailed: &whyFailed,
		headerConcept:   &concept,
		headerPattern:   &pattern,
	}

	var current *string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if target := matchHeader(line, sections); target != nil {
			current = target
			continue
		}

		if current == nil {
			continue
		}
		if *current != "" {
			*current += " "
		}
		*current += line
	}

	return whyGood, whyFailed, concept, pattern
}

// matchHeader returns the section a header line opens, or nil for content
// lines. CONCEPT is checked after the two WHY headers so "the concept"
// inside a sentence never matches; headers must lead the line (allowing
// markdown emphasis).
func matchHeader(line string, sections map[string]*string) *string {
	upper := strings.ToUpper(line)
	for _, h := range []string{headerWhyGood, headerWhyFailed, headerConcept, headerPattern} {
		idx := strings.Index(upper, h)
		if idx >= 0 && idx <= 3 {
			target := sections[h]
			// Inline content after "HEADER:" on the same line.
			if rest := strings.TrimSpace(strings.TrimLeft(line[idx+len(h):], ":*_ ")); rest != "" {
				*target = rest
			}
			return target
		}
	}
	return nil
}
