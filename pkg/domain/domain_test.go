package domain

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStageError(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := NewStageError(ErrSegmentationTransportFailed, "Failed to split the story into pages.", cause)

	t.Run("種別と原因の両方を errors.Is で辿れること", func(t *testing.T) {
		if !errors.Is(err, ErrSegmentationTransportFailed) {
			t.Error("種別で判定できません")
		}
		if !errors.Is(err, cause) {
			t.Error("原因で判定できません")
		}
		if errors.Is(err, ErrIllustrationMissing) {
			t.Error("別の種別に一致してしまいました")
		}
	})

	t.Run("メッセージに固定文と原因が含まれること", func(t *testing.T) {
		want := "Failed to split the story into pages.: quota exceeded"
		if err.Error() != want {
			t.Errorf("期待値 %q, 実際の値 %q", want, err.Error())
		}
	})

	t.Run("ラップされていても種別を取り出せること", func(t *testing.T) {
		wrapped := fmt.Errorf("generate: %w", err)
		if KindOf(wrapped) != ErrSegmentationTransportFailed {
			t.Errorf("KindOf が %v を返しました", KindOf(wrapped))
		}
		if got := KindLabel(wrapped); got != "segmentation_transport_failed" {
			t.Errorf("KindLabel が %q を返しました", got)
		}
	})

	t.Run("原因なしでも動作すること", func(t *testing.T) {
		e := NewStageError(ErrInvalidInput, "story is empty", nil)
		if e.Error() != "story is empty" || !errors.Is(e, ErrInvalidInput) {
			t.Errorf("想定外の結果: %v", e)
		}
	})

	t.Run("分類できないエラー", func(t *testing.T) {
		if KindOf(errors.New("boom")) != nil {
			t.Error("nil を期待しました")
		}
		if KindLabel(errors.New("boom")) != "unknown" || KindLabel(nil) != "ok" {
			t.Error("ラベルが想定外です")
		}
	})
}

func TestMediaTypes(t *testing.T) {
	cases := map[string]bool{
		"image/png":                   true,
		"image/jpeg":                  true,
		"IMAGE/WEBP":                  true,
		"image/png; charset=binary":   true,
		"image/gif":                   false,
		"application/octet-stream":    false,
		"":                            false,
	}
	for in, want := range cases {
		if got := IsAcceptedMediaType(in); got != want {
			t.Errorf("IsAcceptedMediaType(%q) = %v, want %v", in, got, want)
		}
	}

	if MediaTypeFromPath("art/Hero.JPG") != MediaTypeJPEG {
		t.Error("拡張子 .JPG を判定できません")
	}
	if _, err := NewFileCharacterImage("hero.gif"); !errors.Is(err, ErrInvalidInput) {
		t.Error("gif を受け付けてしまいました")
	}
}

func TestDataURI(t *testing.T) {
	uri := DataURI(MediaTypePNG, []byte("fox"))
	if uri != "data:image/png;base64,Zm94" {
		t.Fatalf("想定外の data URI: %s", uri)
	}

	mt, data, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI でエラー: %v", err)
	}
	if mt != MediaTypePNG || string(data) != "fox" {
		t.Errorf("分解結果が想定外です: %s %q", mt, data)
	}

	for _, bad := range []string{"http://example.com/a.png", "data:image/png;base64", "data:image/png,Zm94"} {
		if _, _, err := ParseDataURI(bad); err == nil {
			t.Errorf("%q でエラーになりませんでした", bad)
		}
	}
}

func TestBytesSource(t *testing.T) {
	rc, err := BytesSource("abc").Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if !strings.EqualFold(string(b), "abc") {
		t.Errorf("読み出し結果が想定外です: %q", b)
	}
}

func TestFileSourceFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fox.png")
	if err := os.WriteFile(path, []byte("fox"), 0o644); err != nil {
		t.Fatal(err)
	}
	first, err := FileSource(path).Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	again, _ := FileSource(path).Fingerprint()
	if first != again {
		t.Errorf("同じファイルで識別子が変わりました: %s / %s", first, again)
	}

	if err := os.WriteFile(path, []byte("a bigger fox"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, _ := FileSource(path).Fingerprint()
	if changed == first {
		t.Error("内容が変わっても識別子が同じです")
	}

	if _, err := FileSource(filepath.Join(t.TempDir(), "missing.png")).Fingerprint(); err == nil {
		t.Error("存在しないファイルでエラーになりませんでした")
	}
}

func TestNewPageID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got := NewPageID(now, 2); got != "page-1700000000123-2" {
		t.Errorf("想定外のID: %s", got)
	}
}

func TestProgressFunc(t *testing.T) {
	var got []string
	sink := ProgressFunc(func(m string) { got = append(got, m) })
	sink.Report("a")
	sink.Report("b")
	NopProgress.Report("ignored")
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("想定外の進捗: %v", got)
	}
}
