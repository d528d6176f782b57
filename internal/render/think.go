package render

import (
	"regexp"
	"strings"
)

var thinkBlockRe = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// SplitThink separates reasoning-model think content from the answer.
// Returns (think, response, found); when no think block is present the
// response is the input unchanged and found is false.
func SplitThink(content string) (think, response string, found bool) {
	matches := thinkBlockRe.FindStringSubmatch(content)
	if len(matches) > 1 {
		think = strings.TrimSpace(matches[1])
		response = strings.TrimSpace(thinkBlockRe.ReplaceAllString(content, ""))
		return think, response, true
	}
	return "", content, false
}
