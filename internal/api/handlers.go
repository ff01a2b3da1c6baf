package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/happybuttons/orderflow/internal/models"
	"github.com/happybuttons/orderflow/internal/repository"
	apperrors "github.com/happybuttons/orderflow/pkg/errors"
)

// ApiResponse is the JSON envelope every endpoint responds with
type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Health represents the health check response
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type createOrderRequest struct {
	CustomerEmail string                 `json:"customer_email"`
	CustomerName  string                 `json:"customer_name"`
	Items         []models.OrderItem     `json:"items"`
	Priority      int                    `json:"priority"`
	Metadata      map[string]interface{} `json:"metadata"`
}

type transitionRequest struct {
	ToState  models.OrderState      `json:"to_state"`
	Agent    string                 `json:"agent"`
	Reason   string                 `json:"reason"`
	Metadata map[string]interface{} `json:"metadata"`
}

// healthCheckHandler handles the health check endpoint
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	health := Health{
		Status:    "ok",
		Version:   "0.1.0",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    health,
	})
}

// createOrderHandler creates a new order
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.CustomerEmail == "" {
		s.respondWithError(w, http.StatusBadRequest, "customer_email is required")
		return
	}

	// Default to normal priority when the caller sends none
	if req.Priority == 0 {
		req.Priority = 3
	}

	order, err := s.machine.CreateOrder(req.CustomerEmail, req.CustomerName, req.Items, req.Priority, req.Metadata)

	if err != nil {
		s.respondWithError(w, apperrors.StatusCode(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    order,
	})
}

// getOrdersHandler returns all orders, optionally filtered by state
func (s *Server) getOrdersHandler(w http.ResponseWriter, r *http.Request) {
	stateParam := r.URL.Query().Get("state")

	var orders []*models.Order

	if stateParam != "" {
		state, err := models.ParseState(stateParam)

		if err != nil {
			s.respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		orders = s.machine.GetOrdersByState(state)
	} else {
		orders = s.machine.GetOrders()
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    orders,
	})
}

// getOrderByIDHandler returns an order by ID
func (s *Server) getOrderByIDHandler(w http.ResponseWriter, r *http.Request) {
	order, err := s.machine.GetOrder(mux.Vars(r)["id"])

	if err != nil {
		s.respondWithError(w, apperrors.StatusCode(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    order,
	})
}

// getOrderHistoryHandler returns an order's transition history
func (s *Server) getOrderHistoryHandler(w http.ResponseWriter, r *http.Request) {
	order, err := s.machine.GetOrder(mux.Vars(r)["id"])

	if err != nil {
		s.respondWithError(w, apperrors.StatusCode(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    order.History,
	})
}

// transitionOrderHandler moves an order to a new state
func (s *Server) transitionOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Agent == "" {
		s.respondWithError(w, http.StatusBadRequest, "agent is required")
		return
	}

	orderID := mux.Vars(r)["id"]

	if err := s.machine.TransitionOrder(orderID, req.ToState, req.Agent, req.Reason, req.Metadata); err != nil {
		s.respondWithError(w, apperrors.StatusCode(err), err.Error())
		return
	}

	order, err := s.machine.GetOrder(orderID)

	if err != nil {
		s.respondWithError(w, apperrors.StatusCode(err), err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    order,
	})
}

// getOverdueOrdersHandler returns all orders past their per-state SLA
func (s *Server) getOverdueOrdersHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    s.machine.GetOverdueOrders(),
	})
}

// getStatisticsHandler returns the aggregated order statistics
func (s *Server) getStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    s.machine.GetOrderStatistics(),
	})
}

// getFailedEventsHandler lists event files the relay gave up on
func (s *Server) getFailedEventsHandler(w http.ResponseWriter, r *http.Request) {
	names, err := s.events.Failed()

	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    names,
	})
}

// retryFailedEventHandler moves a failed event file back into the pending queue
func (s *Server) retryFailedEventHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := s.events.Requeue(name); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			code = http.StatusNotFound
		}
		s.respondWithError(w, code, err.Error())
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]string{"requeued": name},
	})
}

// respondWithError sends a JSON response with an error message
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, ApiResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithJSON sends a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)

	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
