package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"divvy-backend/internal/domain"
	"divvy-backend/internal/repository"
	"divvy-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func healthHandler(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRepositoryError maps the repository error taxonomy onto HTTP
// status codes. Partial fan-out failures are surfaced distinctly so
// they never hide behind a generic 500 in the logs.
func handleRepositoryError(w http.ResponseWriter, err error) {
	switch {
	case repository.IsAlreadyExists(err):
		api.Error(w, http.StatusConflict, err.Error())
	case repository.IsNotFound(err):
		api.Error(w, http.StatusNotFound, err.Error())
	case repository.IsPartialFanOut(err):
		logger.Error("denormalized copies diverging", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "write partially applied; record needs reconciliation")
	default:
		logger.Error("repository call failed", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeAndValidate decodes the JSON body into req and runs the schema
// validation; it writes the error response itself and reports success.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// dateRangeParams parses the inclusive from/to epoch-second query
// parameters shared by the range endpoints.
func dateRangeParams(w http.ResponseWriter, r *http.Request) (from, to int64, ok bool) {
	from, err := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid 'from' parameter")
		return 0, 0, false
	}
	to, err = strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid 'to' parameter")
		return 0, 0, false
	}
	return from, to, true
}

// --- Users ---

func createUserHandler(w http.ResponseWriter, r *http.Request) {
	var req api.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user := domain.User{ID: req.ID, Username: req.Username, Name: req.Name}
	if err := repo.CreateUser(r.Context(), user); err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, user)
}

func getUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := repo.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	if user == nil {
		api.Error(w, http.StatusNotFound, "user not found")
		return
	}
	api.Success(w, http.StatusOK, user)
}

func getAllUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := repo.GetAllUsers(r.Context())
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string][]domain.User{"users": users})
}

// --- Personal transactions ---

func createTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	var req api.CreateTransactionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	txn, err := repo.CreateTransaction(r.Context(), domain.Transaction{
		UserID:   userID,
		Location: req.Location,
		Details:  req.Details,
		Amount:   req.Amount,
		Date:     req.Date,
		Category: req.Category,
	})
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, txn)
}

func getTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	txn, err := repo.GetTransaction(r.Context(), userID, chi.URLParam(r, "txnId"))
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	if txn == nil {
		api.Error(w, http.StatusNotFound, "transaction not found")
		return
	}
	api.Success(w, http.StatusOK, txn)
}

func getTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	// With both bounds present this is a range listing; otherwise the
	// full recency-ordered ledger.
	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		from, to, ok := dateRangeParams(w, r)
		if !ok {
			return
		}
		txns, err := repo.GetTransactionsBetweenDates(r.Context(), userID, from, to)
		if err != nil {
			handleRepositoryError(w, err)
			return
		}
		api.Success(w, http.StatusOK, map[string][]domain.Transaction{"transactions": txns})
		return
	}

	txns, err := repo.GetTransactionsByUser(r.Context(), userID)
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string][]domain.Transaction{"transactions": txns})
}

func updateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	var req api.UpdateTransactionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := repo.UpdateTransaction(r.Context(), domain.Transaction{
		ID:       chi.URLParam(r, "txnId"),
		UserID:   userID,
		Location: req.Location,
		Details:  req.Details,
		Amount:   req.Amount,
		Date:     req.Date,
		Category: req.Category,
	})
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"message": "Transaction updated successfully"})
}

func deleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	if err := repo.DeleteTransaction(r.Context(), userID, chi.URLParam(r, "txnId")); err != nil {
		handleRepositoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Shared transactions ---

func createSharedTransactionHandler(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerId")

	var req api.CreateSharedTransactionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	txn, err := repo.CreateSharedTransaction(r.Context(), domain.SharedTransaction{
		Tracker:      trackerID,
		Location:     req.Location,
		Details:      req.Details,
		Amount:       req.Amount,
		Date:         req.Date,
		Category:     req.Category,
		Participants: req.Participants,
		Payer:        req.Payer,
		Unsettled:    req.Unsettled,
		Split:        req.Split,
	})
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, txn)
}

func updateSharedTransactionHandler(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerId")
	txnID := chi.URLParam(r, "txnId")

	var req api.UpdateSharedTransactionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := repo.UpdateSharedTransaction(r.Context(), domain.SharedTransaction{
		ID:           txnID,
		Tracker:      trackerID,
		Location:     req.Location,
		Details:      req.Details,
		Amount:       req.Amount,
		Date:         req.Date,
		Category:     req.Category,
		Participants: req.Participants,
		Payer:        req.Payer,
		Unsettled:    req.Unsettled,
		Split:        req.Split,
	})
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"message": "Shared transaction updated successfully"})
}

func deleteSharedTransactionHandler(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerId")
	txnID := chi.URLParam(r, "txnId")

	var req api.DeleteSharedTransactionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := repo.DeleteSharedTransaction(r.Context(), trackerID, txnID, req.Participants); err != nil {
		handleRepositoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func getTransactionsByTrackerHandler(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerId")

	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		from, to, ok := dateRangeParams(w, r)
		if !ok {
			return
		}
		txns, err := repo.GetTransactionsByTrackerBetweenDates(r.Context(), trackerID, from, to)
		if err != nil {
			handleRepositoryError(w, err)
			return
		}
		api.Success(w, http.StatusOK, map[string][]domain.SharedTransaction{"transactions": txns})
		return
	}

	txns, err := repo.GetTransactionsByTracker(r.Context(), trackerID)
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string][]domain.SharedTransaction{"transactions": txns})
}

func getUnsettledTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	txns, err := repo.GetUnsettledTransactionsByTracker(r.Context(), chi.URLParam(r, "trackerId"))
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string][]domain.SharedTransaction{"transactions": txns})
}

func getSharedTransactionsByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	from, to, ok := dateRangeParams(w, r)
	if !ok {
		return
	}
	txns, err := repo.GetSharedTransactionsByUserBetweenDates(r.Context(), userID, from, to)
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string][]domain.SharedTransaction{"transactions": txns})
}

func settleTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	var req api.SettleTransactionsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	reqs := make([]repository.SettleRequest, len(req.Transactions))
	for i, entry := range req.Transactions {
		reqs[i] = repository.SettleRequest{
			ID:           entry.ID,
			Tracker:      entry.Tracker,
			Participants: entry.Participants,
		}
	}
	if err := repo.SettleTransactions(r.Context(), reqs); err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"message": "Transactions settled"})
}

// --- Trackers ---

func createTrackerHandler(w http.ResponseWriter, r *http.Request) {
	var req api.CreateTrackerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tracker, err := repo.CreateTracker(r.Context(), req.Name, req.Users)
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, tracker)
}

func getTrackerHandler(w http.ResponseWriter, r *http.Request) {
	tracker, err := repo.GetTracker(r.Context(), chi.URLParam(r, "trackerId"))
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	if tracker == nil {
		api.Error(w, http.StatusNotFound, "tracker not found")
		return
	}
	api.Success(w, http.StatusOK, tracker)
}

func getTrackersByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	trackers, err := repo.GetTrackersByUser(r.Context(), userID)
	if err != nil {
		handleRepositoryError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string][]domain.Tracker{"trackers": trackers})
}
