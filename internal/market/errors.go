package market

import "fmt"

// FetchError 表示某个 symbol 在本轮 tick 内拉取行情失败。
// 该错误只影响当前 symbol，下一轮 tick 会自动重试。
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
