package domain

import (
	"fmt"
	"time"
)

// BookPage は絵本の1ページ分の完成品です。
// JSON のキーはフロントエンドの表示層がそのまま使える形にしています。
type BookPage struct {
	ID            string `json:"id"`
	ImageURL      string `json:"imageUrl"`
	GeneratedText string `json:"generatedText"`
}

// Book はページを順番通りに並べた絵本全体です。
type Book struct {
	ID    string     `json:"id"`
	Title string     `json:"title,omitempty"`
	Pages []BookPage `json:"pages"`
}

// NewPageID はタイムスタンプとページ番号を組み合わせたページ識別子を生成します。
func NewPageID(now time.Time, index int) string {
	return fmt.Sprintf("page-%d-%d", now.UnixMilli(), index)
}
