package browser

import "strings"

// imageSourcesScript collects the source of every image on the page in document order.
const imageSourcesScript = `(() => Array.from(document.querySelectorAll('img'))
	.map(img => img.currentSrc || img.src || '')
	.filter(src => src.length > 0))()`

// FilterImages keeps the sources that contain any of the host markers,
// dropping duplicates, up to limit entries.
func FilterImages(sources []string, markers []string, limit int) []string {
	if limit <= 0 {
		return []string{}
	}
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		if len(out) >= limit {
			break
		}
		if _, dup := seen[src]; dup {
			continue
		}
		if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			continue
		}
		for _, m := range markers {
			if m != "" && strings.Contains(src, m) {
				seen[src] = struct{}{}
				out = append(out, src)
				break
			}
		}
	}
	return out
}

// fullPrompt appends the parameter suffix to prompt.
func fullPrompt(prompt, suffix string) string {
	prompt = strings.TrimSpace(prompt)
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return prompt
	}
	return prompt + " " + suffix
}
