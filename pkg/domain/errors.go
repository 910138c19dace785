package domain

import (
	"errors"
	"fmt"
)

// パイプラインが返すエラーの種別です。errors.Is で判定できます。
var (
	ErrMissingCredential           = errors.New("missing credential")
	ErrInvalidInput                = errors.New("invalid input")
	ErrEncodingFailed              = errors.New("encoding failed")
	ErrSegmentationFormatInvalid   = errors.New("segmentation format invalid")
	ErrSegmentationTransportFailed = errors.New("segmentation transport failed")
	ErrIllustrationMissing         = errors.New("illustration missing")
	ErrIllustrationTransportFailed = errors.New("illustration transport failed")
)

var kinds = []error{
	ErrMissingCredential,
	ErrInvalidInput,
	ErrEncodingFailed,
	ErrSegmentationFormatInvalid,
	ErrSegmentationTransportFailed,
	ErrIllustrationMissing,
	ErrIllustrationTransportFailed,
}

// StageError はパイプラインの各工程で発生した失敗を表します。
// Kind は上記の種別、Message は利用者向けの固定文、Err は元の原因です。
type StageError struct {
	Kind    error
	Message string
	Err     error
}

// NewStageError は StageError を生成します。
func NewStageError(kind error, message string, cause error) *StageError {
	return &StageError{Kind: kind, Message: message, Err: cause}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap は種別と原因の両方を返すため、どちらも errors.Is で辿れます。
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf はエラーの種別を返します。該当しない場合は nil です。
func KindOf(err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindLabel はメトリクスのラベル等に使う安定した文字列を返します。
func KindLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch KindOf(err) {
	case ErrMissingCredential:
		return "missing_credential"
	case ErrInvalidInput:
		return "invalid_input"
	case ErrEncodingFailed:
		return "encoding_failed"
	case ErrSegmentationFormatInvalid:
		return "segmentation_format_invalid"
	case ErrSegmentationTransportFailed:
		return "segmentation_transport_failed"
	case ErrIllustrationMissing:
		return "illustration_missing"
	case ErrIllustrationTransportFailed:
		return "illustration_transport_failed"
	default:
		return "unknown"
	}
}
