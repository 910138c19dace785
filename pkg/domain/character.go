package domain

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// 受け付けるキャラクター画像のメディアタイプです。
const (
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
	MediaTypeWebP = "image/webp"
)

var acceptedMediaTypes = map[string]struct{}{
	MediaTypeJPEG: {},
	MediaTypePNG:  {},
	MediaTypeWebP: {},
}

var extensionMediaTypes = map[string]string{
	".jpg":  MediaTypeJPEG,
	".jpeg": MediaTypeJPEG,
	".png":  MediaTypePNG,
	".webp": MediaTypeWebP,
}

// IsAcceptedMediaType は、キャラクター画像として受け付けるメディアタイプかどうかを返します。
// パラメータ付き (例: "image/png; charset=binary") でも本体部分で判定します。
func IsAcceptedMediaType(mediaType string) bool {
	base, _, _ := strings.Cut(mediaType, ";")
	_, ok := acceptedMediaTypes[strings.ToLower(strings.TrimSpace(base))]
	return ok
}

// MediaTypeFromPath は拡張子からメディアタイプを推定します。不明な場合は空文字を返します。
func MediaTypeFromPath(path string) string {
	return extensionMediaTypes[strings.ToLower(filepath.Ext(path))]
}

// ImageSource はキャラクター画像のバイト列を提供する読み出し元です。
type ImageSource interface {
	Open() (io.ReadCloser, error)
}

// FileSource はローカルファイルを読み出し元とする ImageSource です。
type FileSource string

// Open はファイルを開きます。
func (f FileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

// Fingerprint はファイルのパス・サイズ・更新時刻から識別子を返します。
// 中身を読まずに同一ファイルかどうかを判定するために使います。
func (f FileSource) Fingerprint() (string, error) {
	info, err := os.Stat(string(f))
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(string(f))
	if err != nil {
		abs = string(f)
	}
	return fmt.Sprintf("file:%s:%d:%d", abs, info.Size(), info.ModTime().UnixNano()), nil
}

// Fingerprinter は中身を読まずに識別子を返せる ImageSource です。
type Fingerprinter interface {
	Fingerprint() (string, error)
}

// BytesSource はメモリ上のバイト列を読み出し元とする ImageSource です。
type BytesSource []byte

// Open はバイト列をそのまま読み出す ReadCloser を返します。
func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// CharacterImage はユーザーが提供したキャラクターの参照画像です。
// セッション中だけ保持され、永続化はしません。
type CharacterImage struct {
	Name      string
	MediaType string
	Source    ImageSource
}

// NewFileCharacterImage は拡張子からメディアタイプを推定して CharacterImage を作成します。
func NewFileCharacterImage(path string) (CharacterImage, error) {
	mediaType := MediaTypeFromPath(path)
	if mediaType == "" {
		return CharacterImage{}, NewStageError(ErrInvalidInput, "Unsupported character image type. Please use JPEG, PNG or WebP.", fmt.Errorf("path: %s", path))
	}
	return CharacterImage{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Source:    FileSource(path),
	}, nil
}

// String はログ出力用の表現を返します。
func (c CharacterImage) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.MediaType)
}

// EncodedImage はリクエストに埋め込める形に変換済みのキャラクター画像です。
type EncodedImage struct {
	Name      string
	MediaType string
	Data      []byte
}

// DataURI はメディアタイプとデータから data URI を組み立てます。
func DataURI(mediaType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}

// ParseDataURI は DataURI で組み立てた URI を分解します。
func ParseDataURI(uri string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI: missing payload")
	}
	mediaType, ok = strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI: only base64 payloads are supported")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("malformed data URI payload: %w", err)
	}
	return mediaType, data, nil
}
