// Package demo wires a small object graph — an order-processing
// workflow spanning an OrderService, a PaymentGateway, and an
// InventoryService — through the weaver, so the kernel can be exercised
// end to end against a realistic, multi-method object graph.
package demo

import (
	"fmt"

	"go.uber.org/zap"

	"aspectkit/pkg/logger"
)

// OrderService places orders against inventory and payment collaborators.
type OrderService struct {
	payments  PaymentGateway
	inventory InventoryService
	log       *zap.SugaredLogger
}

// NewOrderService builds an OrderService bound to its collaborators.
func NewOrderService(payments PaymentGateway, inventory InventoryService) *OrderService {
	return &OrderService{payments: payments, inventory: inventory, log: logger.Get()}
}

// PlaceOrder reserves stock, charges the customer, and returns a
// confirmation number. A reservation failure or a declined charge
// returns an error; a successful charge still rolls back the reservation
// only when the charge itself fails, not on success.
func (s *OrderService) PlaceOrder(sku string, quantity int, amountCents int) (string, error) {
	if err := s.inventory.Reserve(sku, quantity); err != nil {
		return "", fmt.Errorf("order: reserve %s x%d: %w", sku, quantity, err)
	}

	if err := s.payments.Charge(amountCents); err != nil {
		s.inventory.Release(sku, quantity)
		return "", fmt.Errorf("order: charge %dc: %w", amountCents, err)
	}

	confirmation := fmt.Sprintf("ORD-%s-%d", sku, quantity)
	s.log.Infow("order placed", "sku", sku, "quantity", quantity, "confirmation", confirmation)
	return confirmation, nil
}

// PaymentGateway charges a customer for an order.
type PaymentGateway interface {
	Charge(amountCents int) error
}

type paymentGateway struct {
	declineOver int
	log         *zap.SugaredLogger
}

// NewPaymentGateway builds a PaymentGateway that declines any charge over
// declineOver cents, simulating a card limit.
func NewPaymentGateway(declineOver int) PaymentGateway {
	return &paymentGateway{declineOver: declineOver, log: logger.Get()}
}

func (g *paymentGateway) Charge(amountCents int) error {
	if g.declineOver > 0 && amountCents > g.declineOver {
		return fmt.Errorf("payment: declined: %dc exceeds limit %dc", amountCents, g.declineOver)
	}
	g.log.Debugw("payment charged", "amountCents", amountCents)
	return nil
}

// InventoryService reserves and releases stock for a SKU.
type InventoryService interface {
	Reserve(sku string, quantity int) error
	Release(sku string, quantity int)
}

type inventoryService struct {
	stock map[string]int
	log   *zap.SugaredLogger
}

// NewInventoryService builds an InventoryService seeded with stock.
func NewInventoryService(stock map[string]int) InventoryService {
	return &inventoryService{stock: stock, log: logger.Get()}
}

func (s *inventoryService) Reserve(sku string, quantity int) error {
	if s.stock[sku] < quantity {
		return fmt.Errorf("inventory: insufficient stock for %s: have %d, want %d", sku, s.stock[sku], quantity)
	}
	s.stock[sku] -= quantity
	s.log.Debugw("stock reserved", "sku", sku, "quantity", quantity, "remaining", s.stock[sku])
	return nil
}

func (s *inventoryService) Release(sku string, quantity int) {
	s.stock[sku] += quantity
	s.log.Debugw("stock released", "sku", sku, "quantity", quantity, "remaining", s.stock[sku])
}
