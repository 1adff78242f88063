package exchange

import (
	"context"
	"errors"
	"fmt"
	"testing"

	ccxt "github.com/ccxt/ccxt/go/v4"
)

// timeoutError 模拟一次网络层超时。
type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	retryable := []error{
		&ccxt.Error{Type: ccxt.NetworkErrorErrType, Message: "transient"},
		&ccxt.Error{Type: ccxt.RequestTimeoutErrType, Message: "transient"},
		&ccxt.Error{Type: ccxt.ExchangeNotAvailableErrType, Message: "transient"},
		&ccxt.Error{Type: ccxt.RateLimitExceededErrType, Message: "transient"},
		&ccxt.Error{Type: ccxt.DDoSProtectionErrType, Message: "transient"},
		&ccxt.Error{Type: ccxt.BadResponseErrType, Message: "transient"},
		&ccxt.Error{Type: ccxt.NullResponseErrType, Message: "transient"},
	}
	for _, err := range retryable {
		if !IsRetryable(err) {
			t.Errorf("expected %v to be retryable", err)
		}
	}

	if IsRetryable(&ccxt.Error{Type: ccxt.OnMaintenanceErrType, Message: "terminal"}) {
		t.Errorf("maintenance must be terminal, not retried")
	}

	// 包装后的错误同样能被识别。
	wrapped := fmt.Errorf("fetch failed: %w", &ccxt.Error{Type: ccxt.RateLimitExceededErrType})
	if !IsRetryable(wrapped) {
		t.Errorf("expected wrapped ccxt error to stay retryable")
	}

	if !IsRetryable(timeoutError{}) {
		t.Errorf("expected net.Error to be retryable")
	}
	if IsRetryable(errors.New("plain failure")) {
		t.Errorf("expected plain error to be terminal")
	}
	if IsRetryable(nil) {
		t.Errorf("nil error must not be retryable")
	}
}

func TestClassifyError(t *testing.T) {
	c := &Client{}

	// 重试判定与 IsRetryable 保持一致。
	transient := &ccxt.Error{Type: ccxt.RequestTimeoutErrType, Message: "timeout"}
	if _, retry := c.classifyError(transient); !retry {
		t.Errorf("expected transient ccxt error to be retryable")
	}
	if _, retry := c.classifyError(timeoutError{}); !retry {
		t.Errorf("expected net.Error to be retryable")
	}

	// 维护状态归一化为哨兵且不重试。
	maintenance := &ccxt.Error{Type: ccxt.OnMaintenanceErrType, Message: "scheduled"}
	normalized, retry := c.classifyError(maintenance)
	if retry {
		t.Errorf("maintenance must not be retried")
	}
	if !errors.Is(normalized, ErrMaintenance) {
		t.Errorf("expected ErrMaintenance sentinel, got %v", normalized)
	}

	// 上下文取消直接透传且不重试。
	if normalized, retry := c.classifyError(context.Canceled); retry || normalized != context.Canceled {
		t.Errorf("context cancellation must pass through unretried, got %v retry=%v", normalized, retry)
	}
}
