package demo

import (
	"aspectkit/pkg/registry"
	"aspectkit/pkg/weaver"
)

// Graph is the fully woven demo object graph: an OrderService fronted by
// a logging, auditing, alerting, and timing aspect.
type Graph struct {
	Weaver  *weaver.Weaver
	Orders  *OrderService
	Logging *LoggingAspect
	Audit   *AuditAspect
	Alert   *AlertAspect
	Timing  *TimingAspect
}

// Build constructs the object graph with every aspect enabled. declineOver
// is the PaymentGateway's simulated card limit in cents; stock seeds the
// InventoryService.
func Build(declineOver int, stock map[string]int) (*Graph, error) {
	return BuildSelected(declineOver, stock, []string{"logging", "audit", "alert", "timing"})
}

// BuildSelected constructs the object graph and boots the weaver over it,
// installing only the aspects named in enabled (by the same IDs pkg/config
// reads from a file). This is what lets aopctl's --config flag turn
// individual aspects off without touching the graph's wiring code.
func BuildSelected(declineOver int, stock map[string]int, enabled []string) (*Graph, error) {
	payments := NewPaymentGateway(declineOver)
	inventory := NewInventoryService(stock)
	orders := NewOrderService(payments, inventory)

	logging := NewLoggingAspect()
	audit := NewAuditAspect()
	alert := NewAlertAspect()
	timing := NewTimingAspect()

	wants := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		wants[name] = true
	}

	const placeOrderPointcut = "execution(* OrderService.PlaceOrder(..))"
	var aspects []weaver.AspectConfig
	if wants["logging"] {
		aspects = append(aspects, weaver.AspectConfig{
			ID:     "logging",
			Target: orders,
			Advices: []weaver.AdviceConfig{
				{Type: registry.Before, Pointcut: placeOrderPointcut, Before: logging.Before},
			},
		})
	}
	if wants["audit"] {
		aspects = append(aspects, weaver.AspectConfig{
			ID:       "audit",
			Target:   orders,
			Order:    1,
			HasOrder: true,
			Advices: []weaver.AdviceConfig{
				{Type: registry.AfterReturning, Pointcut: placeOrderPointcut, AfterReturning: audit.AfterReturning},
			},
		})
	}
	if wants["alert"] {
		aspects = append(aspects, weaver.AspectConfig{
			ID:       "alert",
			Target:   orders,
			Order:    2,
			HasOrder: true,
			Advices: []weaver.AdviceConfig{
				{Type: registry.AfterThrowing, Pointcut: placeOrderPointcut, AfterThrowing: alert.AfterThrowing},
			},
		})
	}
	if wants["timing"] {
		aspects = append(aspects, weaver.AspectConfig{
			ID:     "timing",
			Target: orders,
			Advices: []weaver.AdviceConfig{
				{Type: registry.Around, Pointcut: placeOrderPointcut, Around: timing.Around},
			},
		})
	}

	w := weaver.New()
	if err := w.Boot(weaver.Config{Aspects: aspects}); err != nil {
		return nil, err
	}

	return &Graph{Weaver: w, Orders: orders, Logging: logging, Audit: audit, Alert: alert, Timing: timing}, nil
}

// PlaceOrder invokes PlaceOrder through the woven proxy graph. All four
// aspects installed their advice under the same target type's registry
// bucket, keyed by class rather than by aspect or by proxy instance, so
// any one of the live proxies over that target fires every matching
// before/around/afterReturning/afterThrowing record in weave order —
// invoking more than one of them would run the original method's body,
// and its side effects, once per proxy.
func (g *Graph) PlaceOrder(sku string, quantity int, amountCents int) (string, error) {
	proxies := g.Weaver.LiveProxies()
	if len(proxies) == 0 {
		return "", nil
	}

	out, err := proxies[0].Invoke("PlaceOrder", sku, quantity, amountCents)
	if err != nil {
		return "", err
	}
	if len(out) > 0 {
		if s, ok := out[0].(string); ok {
			return s, nil
		}
	}
	return "", nil
}
