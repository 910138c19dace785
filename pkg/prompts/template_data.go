package prompts

import (
	_ "embed"
)

const (
	ModeSegment      = "segment"
	ModeIllustration = "illustration"
)

// TemplateData はプロンプトテンプレートに渡すデータ構造です。
type TemplateData struct {
	InputText      string
	StylePrompt    string
	MinPages       int
	MaxPages       int
	ReferenceCount int
}

var (
	//go:embed segment.md
	SegmentPrompt string
	//go:embed illustration.md
	IllustrationPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップです。
var allTemplates = map[string]string{
	ModeSegment:      SegmentPrompt,
	ModeIllustration: IllustrationPrompt,
}
