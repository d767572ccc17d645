// Package generation turns a raw model completion into a structured turn.
package generation

import (
	"regexp"
	"strings"

	"fable-lab/domain"
)

var (
	introRe     = regexp.MustCompile(`(?s)<intro>(.*?)</intro>`)
	narrativeRe = regexp.MustCompile(`(?s)<narrative>(.*?)</narrative>`)
	choicesRe   = regexp.MustCompile(`(?s)<choices>(.*?)</choices>`)
)

// ParseSections extracts the intro, narrative and choices blocks from a raw
// completion. Models routinely truncate the final closing tag, so a missing
// </choices> is synthesized before matching. Choice lines lose their leading
// "- " bullet; blank lines are dropped.
func ParseSections(raw string) domain.LastAIResponse {
	if strings.Contains(raw, "<choices>") && !strings.Contains(raw, "</choices>") {
		raw += "</choices>"
	}

	resp := domain.LastAIResponse{}
	if m := introRe.FindStringSubmatch(raw); m != nil {
		resp.Intro = strings.TrimSpace(m[1])
	}
	if m := narrativeRe.FindStringSubmatch(raw); m != nil {
		resp.Narrative = strings.TrimSpace(m[1])
	}
	if m := choicesRe.FindStringSubmatch(raw); m != nil {
		for _, line := range strings.Split(strings.TrimSpace(m[1]), "\n") {
			choice := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
			if choice != "" {
				resp.Choices = append(resp.Choices, choice)
			}
		}
	}
	return resp
}
