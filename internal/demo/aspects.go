package demo

import (
	"go.uber.org/zap"

	"aspectkit/pkg/advice"
	"aspectkit/pkg/joinpoint"
	"aspectkit/pkg/logger"
)

// LoggingAspect logs every intercepted call before it runs, using a real
// pointcut expression and a typed before-advice function instead of a
// fixed Advice(jp) method.
type LoggingAspect struct {
	Log *zap.SugaredLogger
}

// NewLoggingAspect builds a LoggingAspect bound to the shared logger.
func NewLoggingAspect() *LoggingAspect {
	return &LoggingAspect{Log: logger.Get()}
}

// Before logs the call about to run.
func (a *LoggingAspect) Before(jp *joinpoint.JoinPoint) error {
	a.Log.Infow("method call",
		"target", jp.OwnerType(),
		"method", jp.Signature(),
		"args", jp.Args())
	return nil
}

// AuditAspect records the outcome of a successful order placement.
type AuditAspect struct {
	Log     *zap.SugaredLogger
	Ledger  []string
}

// NewAuditAspect builds an AuditAspect with an empty ledger.
func NewAuditAspect() *AuditAspect {
	return &AuditAspect{Log: logger.Get()}
}

// AfterReturning appends the confirmation number to the ledger.
func (a *AuditAspect) AfterReturning(jp *joinpoint.JoinPoint, result any) error {
	confirmation, _ := result.(string)
	a.Ledger = append(a.Ledger, confirmation)
	a.Log.Infow("order audited", "confirmation", confirmation)
	return nil
}

// AlertAspect notifies on a failed order placement.
type AlertAspect struct {
	Log    *zap.SugaredLogger
	Alerts []string
}

// NewAlertAspect builds an AlertAspect with an empty alert log.
func NewAlertAspect() *AlertAspect {
	return &AlertAspect{Log: logger.Get()}
}

// AfterThrowing records the failure and lets it propagate unchanged.
func (a *AlertAspect) AfterThrowing(jp *joinpoint.JoinPoint, err error) error {
	a.Alerts = append(a.Alerts, err.Error())
	a.Log.Warnw("order failed", "method", jp.Signature(), "error", err)
	return nil
}

// TimingAspect wraps calls with a synthetic call counter, standing in
// for a real latency timer so the demo and its tests stay deterministic.
type TimingAspect struct {
	Log   *zap.SugaredLogger
	Calls int
}

// NewTimingAspect builds a TimingAspect with a zero call count.
func NewTimingAspect() *TimingAspect {
	return &TimingAspect{Log: logger.Get()}
}

// Around counts the call and proceeds to the original method.
func (a *TimingAspect) Around(jp *joinpoint.JoinPoint, proceed advice.ProceedFunc) (any, error) {
	a.Calls++
	a.Log.Debugw("call started", "method", jp.Signature(), "sequence", a.Calls)
	result, err := proceed()
	a.Log.Debugw("call finished", "method", jp.Signature(), "sequence", a.Calls)
	return result, err
}
