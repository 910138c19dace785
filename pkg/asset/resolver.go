package asset

import (
	"path/filepath"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultImageDir は生成されたイラストを格納するデフォルトのディレクトリ名です。
	DefaultImageDir = "images"
	// DefaultBookJSON は絵本のマニフェスト JSON のデフォルトファイル名です。
	DefaultBookJSON = "book.json"
	// DefaultBookHTML はフリップブック HTML のデフォルトファイル名です。
	DefaultBookHTML = "index.html"
	// DefaultPageFileName はページイラストの共通のベースファイル名です。
	DefaultPageFileName = "page.png"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// GenerateIndexedPath は、指定されたベースパスの拡張子の前に連番を挿入します。
// 例: "images/page.png", 1 -> "images/page_1.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// PageImagePath はページ番号 (1始まり) と拡張子から、画像ディレクトリ配下のパスを返します。
func PageImagePath(baseDir string, index int, extension string) (string, error) {
	imgDir, err := ResolveOutputPath(baseDir, DefaultImageDir)
	if err != nil {
		return "", err
	}
	base, err := ResolveOutputPath(imgDir, DefaultPageFileName)
	if err != nil {
		return "", err
	}
	indexed, err := GenerateIndexedPath(base, index)
	if err != nil {
		return "", err
	}
	if extension == "" || extension == filepath.Ext(indexed) {
		return indexed, nil
	}
	return strings.TrimSuffix(indexed, filepath.Ext(indexed)) + extension, nil
}

// ExtensionForMediaType はメディアタイプに対応する拡張子を返します。不明なら ".png" です。
func ExtensionForMediaType(mediaType string) string {
	preferred := map[string]string{"image/png": ".png", "image/jpeg": ".jpg", "image/webp": ".webp"}
	if ext, ok := preferred[mediaType]; ok {
		return ext
	}
	return ".png"
}
