package scrape

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"journey_backend/internal/model"
)

var (
	spaceRe      = regexp.MustCompile(`\s+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)

	navLinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(home|about|contact|privacy|terms|menu|navigation|skip|jump)`),
		regexp.MustCompile(`^cookie.*policy`),
		regexp.MustCompile(`^subscribe.*newsletter`),
		regexp.MustCompile(`^follow us`),
		regexp.MustCompile(`^share`),
	}
)

// CleanText 按段落规整文本：压缩空白、丢弃短段和导航类段落
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	paragraphs := strings.Split(text, "\n\n")
	cleaned := make([]string, 0, len(paragraphs))

	for _, para := range paragraphs {
		para = strings.TrimSpace(spaceRe.ReplaceAllString(para, " "))
		if len(para) < 20 {
			continue
		}

		lower := strings.ToLower(para)
		skip := false
		for _, pat := range navLinePatterns {
			if pat.MatchString(lower) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		cleaned = append(cleaned, para)
	}

	result := strings.Join(cleaned, "\n\n")
	result = blankLinesRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// EstimateReadingTime 按每分钟200词估算，至少1分钟
func EstimateReadingTime(text string) int {
	words := len(strings.Fields(text))
	if minutes := words / 200; minutes > 1 {
		return minutes
	}
	return 1
}

// TruncateText 在 rune 边界截断，不会把多字节字符切出半个
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return cutRunes(text, maxLen-3) + "..."
}

// cutRunes 返回不超过 max 字节且止于 rune 边界的前缀
func cutRunes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

var videoDomains = []string{"youtube.com", "youtu.be", "vimeo.com"}

func IsVideoURL(url string) bool {
	lower := strings.ToLower(url)
	for _, domain := range videoDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

// DetectType URL 特征优先，其次看正文关键词，默认 blog
func DetectType(url, content string) model.ResourceType {
	lower := strings.ToLower(url)

	if IsVideoURL(lower) {
		return model.Video
	}
	for _, domain := range []string{"github.com", "gitlab.com"} {
		if strings.Contains(lower, domain) {
			return model.Doc
		}
	}
	for _, ext := range []string{".pdf", ".doc", ".docx"} {
		if strings.Contains(lower, ext) {
			return model.Doc
		}
	}

	if content != "" {
		contentLower := strings.ToLower(content)
		if strings.Contains(contentLower, "video") || strings.Contains(contentLower, "watch") {
			return model.Video
		}
		if strings.Contains(contentLower, "tutorial") || strings.Contains(contentLower, "guide") {
			return model.Blog
		}
		if strings.Contains(contentLower, "documentation") || strings.Contains(contentLower, "api") {
			return model.Doc
		}
	}

	return model.Blog
}
