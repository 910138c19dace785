package domain

// ProgressSink はパイプラインの進捗を人が読めるメッセージで受け取ります。
// 各チェックポイントで同期的に呼ばれます。
type ProgressSink interface {
	Report(message string)
}

// ProgressFunc は関数を ProgressSink として使うためのアダプターです。
type ProgressFunc func(message string)

// Report は f(message) を呼び出します。
func (f ProgressFunc) Report(message string) {
	if f != nil {
		f(message)
	}
}

// NopProgress は何もしない ProgressSink です。
var NopProgress ProgressSink = ProgressFunc(nil)
