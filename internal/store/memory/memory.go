// Package memory is an in-process store.Repository for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/store"
)

type userData struct {
	transactions map[string]domain.Transaction
	budgets      map[string]domain.Budget
	insights     map[string]domain.FinancialInsight
}

// Store keeps records in maps guarded by a RWMutex. Values are copied in
// and out so callers never share state with the store.
type Store struct {
	mu    sync.RWMutex
	users map[string]*userData
}

// New creates an empty Store.
func New() *Store {
	return &Store{users: make(map[string]*userData)}
}

// user returns the data for userID, creating it when create is set.
// Callers must hold the appropriate lock.
func (s *Store) user(userID string, create bool) *userData {
	u, ok := s.users[userID]
	if !ok && create {
		u = &userData{
			transactions: make(map[string]domain.Transaction),
			budgets:      make(map[string]domain.Budget),
			insights:     make(map[string]domain.FinancialInsight),
		}
		s.users[userID] = u
	}
	return u
}

func requireIDs(userID, id string) error {
	if userID == "" {
		return &domain.InvalidInputError{Field: "user_id", Reason: "is required", ID: id}
	}
	if id == "" {
		return &domain.InvalidInputError{Field: "id", Reason: "is required"}
	}
	return nil
}

// ListTransactions implements store.Repository.
func (s *Store) ListTransactions(_ context.Context, userID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Transaction{}
	if u := s.user(userID, false); u != nil {
		for _, tx := range u.transactions {
			out = append(out, tx)
		}
	}
	store.SortTransactions(out)
	return out, nil
}

// GetTransaction implements store.Repository.
func (s *Store) GetTransaction(_ context.Context, userID, transactionID string) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.user(userID, false); u != nil {
		if tx, ok := u.transactions[transactionID]; ok {
			return tx, nil
		}
	}
	return domain.Transaction{}, fmt.Errorf("GetTransaction: %s: %w", transactionID, store.ErrNotFound)
}

// SaveTransaction implements store.Repository.
func (s *Store) SaveTransaction(_ context.Context, tx domain.Transaction) error {
	if err := requireIDs(tx.UserID, tx.ID); err != nil {
		return fmt.Errorf("SaveTransaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(tx.UserID, true).transactions[tx.ID] = tx
	return nil
}

// ListBudgets implements store.Repository.
func (s *Store) ListBudgets(_ context.Context, userID string) ([]domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Budget{}
	if u := s.user(userID, false); u != nil {
		for _, b := range u.budgets {
			out = append(out, b)
		}
	}
	store.SortBudgets(out)
	return out, nil
}

// GetBudget implements store.Repository.
func (s *Store) GetBudget(_ context.Context, userID, budgetID string) (domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.user(userID, false); u != nil {
		if b, ok := u.budgets[budgetID]; ok {
			return b, nil
		}
	}
	return domain.Budget{}, fmt.Errorf("GetBudget: %s: %w", budgetID, store.ErrNotFound)
}

// SaveBudget implements store.Repository.
func (s *Store) SaveBudget(_ context.Context, b domain.Budget) error {
	if err := requireIDs(b.UserID, b.ID); err != nil {
		return fmt.Errorf("SaveBudget: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(b.UserID, true).budgets[b.ID] = b
	return nil
}

// ListInsights implements store.Repository.
func (s *Store) ListInsights(_ context.Context, userID string) ([]domain.FinancialInsight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.FinancialInsight{}
	if u := s.user(userID, false); u != nil {
		for _, in := range u.insights {
			out = append(out, copyInsight(in))
		}
	}
	store.SortInsights(out)
	return out, nil
}

// SaveInsight implements store.Repository.
func (s *Store) SaveInsight(_ context.Context, in domain.FinancialInsight) error {
	if err := requireIDs(in.UserID, in.ID); err != nil {
		return fmt.Errorf("SaveInsight: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(in.UserID, true).insights[in.ID] = copyInsight(in)
	return nil
}

// MarkInsightRead implements store.Repository.
func (s *Store) MarkInsightRead(_ context.Context, userID, insightID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID, false)
	if u == nil {
		return fmt.Errorf("MarkInsightRead: %s: %w", insightID, store.ErrNotFound)
	}
	in, ok := u.insights[insightID]
	if !ok {
		return fmt.Errorf("MarkInsightRead: %s: %w", insightID, store.ErrNotFound)
	}
	in.IsRead = true
	u.insights[insightID] = in
	return nil
}

// DeleteInsight implements store.Repository.
func (s *Store) DeleteInsight(_ context.Context, userID, insightID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID, false)
	if u == nil {
		return fmt.Errorf("DeleteInsight: %s: %w", insightID, store.ErrNotFound)
	}
	if _, ok := u.insights[insightID]; !ok {
		return fmt.Errorf("DeleteInsight: %s: %w", insightID, store.ErrNotFound)
	}
	delete(u.insights, insightID)
	return nil
}

// Close implements store.Repository.
func (s *Store) Close() error {
	return nil
}

func copyInsight(in domain.FinancialInsight) domain.FinancialInsight {
	if in.RelatedTransactionIDs != nil {
		in.RelatedTransactionIDs = append([]string(nil), in.RelatedTransactionIDs...)
	}
	return in
}
