package ledger

import "fmt"

// InvariantError 表示账本不变量被破坏（例如重复平仓、止损止盈方向颠倒）。
// 属于程序级错误：必须立刻上抛并终止本次运行，而不是记日志后继续。
type InvariantError struct {
	TradeID int64
	Reason  string
}

func (e *InvariantError) Error() string {
	if e.TradeID > 0 {
		return fmt.Sprintf("ledger invariant violated (trade #%d): %s", e.TradeID, e.Reason)
	}
	return fmt.Sprintf("ledger invariant violated: %s", e.Reason)
}

func invariantf(tradeID int64, format string, args ...any) error {
	return &InvariantError{TradeID: tradeID, Reason: fmt.Sprintf(format, args...)}
}
