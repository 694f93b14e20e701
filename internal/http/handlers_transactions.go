package http

import (
	"net/http"

	"budgetwise/internal/core"
	"budgetwise/internal/services"
)

type transactionCreatedResponse struct {
	Message     string           `json:"message"`
	Transaction core.Transaction `json:"transaction"`
	AICategory  string           `json:"ai_category"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	txs, err := s.deps.Transactions.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string][]core.Transaction{"transactions": txs})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	in, err := transactionInput(p)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	tx, err := s.deps.Transactions.Create(r.Context(), user, in)
	if err != nil {
		writeServiceError(w, r, err, "Savings goal or budget not found")
		return
	}
	writeJSON(w, http.StatusCreated, transactionCreatedResponse{
		Message:     "Transaction added successfully",
		Transaction: tx,
		AICategory:  tx.Category,
	})
}

func transactionInput(p *RequestBodyParser) (services.CreateTransactionInput, error) {
	if p.Get("amount") == "" || p.Get("description") == "" {
		return services.CreateTransactionInput{}, core.ErrMissingFields
	}
	amount, err := p.Amount("amount")
	if err != nil {
		return services.CreateTransactionInput{}, err
	}
	date, err := p.OptionalDate("transaction_date")
	if err != nil {
		return services.CreateTransactionInput{}, err
	}
	goalID, err := p.OptionalID("goal_id")
	if err != nil {
		return services.CreateTransactionInput{}, err
	}
	budgetID, err := p.OptionalID("budget_id")
	if err != nil {
		return services.CreateTransactionInput{}, err
	}

	return services.CreateTransactionInput{
		Amount:          amount,
		Description:     p.Get("description"),
		TransactionDate: date,
		Category:        p.Get("category"),
		GoalID:          goalID,
		BudgetID:        budgetID,
	}, nil
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err := s.deps.Transactions.Delete(r.Context(), user, id); err != nil {
		writeServiceError(w, r, err, "Transaction not found")
		return
	}
	writeMessage(w, http.StatusOK, "Transaction deleted successfully")
}
