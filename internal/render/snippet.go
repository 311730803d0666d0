package render

import (
	"fmt"
	"html"
	"strings"
)

// SandboxFlags 预览 iframe 的 sandbox 权限：允许脚本和同源访问，其余能力全部关闭
const SandboxFlags = "allow-scripts allow-same-origin"

// PreviewIframe 把渲染结果放进 srcdoc 沙箱 iframe
func PreviewIframe(document string) string {
	return fmt.Sprintf(`<iframe sandbox="%s" srcdoc="%s" style="width:100%%;height:100%%;border:0"></iframe>`,
		SandboxFlags, html.EscapeString(document))
}

// PlayerPath 测验播放页路径
func PlayerPath(testID string) string {
	return "/play/" + testID
}

// EmbedSnippet 生成嵌入第三方页面的 iframe 代码，只由测验 ID 决定
func EmbedSnippet(baseURL, testID string) string {
	src := strings.TrimRight(baseURL, "/") + PlayerPath(testID)
	return fmt.Sprintf(`<iframe src="%s" width="100%%" height="600" style="border:0" allow="fullscreen" loading="lazy"></iframe>`,
		html.EscapeString(src))
}
