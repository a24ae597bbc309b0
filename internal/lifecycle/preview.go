package lifecycle

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// PreviewLength 回收站中回复内容预览的最大字符数
const PreviewLength = 100

var stripPolicy = bluemonday.StrictPolicy()

// Preview 去除富文本标记并截断
func Preview(content string) string {
	// 标签之间补空格，避免相邻段落粘连
	text := stripPolicy.Sanitize(strings.ReplaceAll(content, ">", "> "))
	text = html.UnescapeString(text)
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:PreviewLength]), " ") + "..."
}
