// Copyright 2026 The crmd Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crmd/crmd/internal/customer"
	"github.com/crmd/crmd/internal/observability/logger"
	"github.com/go-chi/chi/v5"
)

// CreateCustomer handles customer creation
// @Summary Create customer
// @Description Creates a customer with status "Lead"
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body customer.CreateInput true "Customer details"
// @Success 200 {object} customer.Customer
// @Failure 422 {object} ErrorResponse
// @Router /customers/ [post]
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in customer.CreateInput
	if !decodeBody(w, r, &in) {
		return
	}

	c, err := h.customerService.Create(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, c)
}

// ListCustomers returns every customer
// @Summary List customers
// @Tags Customers
// @Produce json
// @Success 200 {array} customer.Customer
// @Router /customers/ [get]
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerService.List(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if customers == nil {
		customers = []*customer.Customer{}
	}

	respondJSON(w, http.StatusOK, customers)
}

// GetCustomer returns a single customer
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} customer.Customer
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /customers/{id} [get]
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	c, err := h.customerService.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, c)
}

// UpdateCustomerStatus changes a customer's status
// @Summary Update customer status
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path int true "Customer ID"
// @Param request body customer.UpdateStatusInput true "New status"
// @Success 200 {object} customer.Customer
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /customers/{id}/status [put]
func (h *Handler) UpdateCustomerStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	var in customer.UpdateStatusInput
	if !decodeBody(w, r, &in) {
		return
	}

	c, err := h.customerService.UpdateStatus(r.Context(), id, in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, c)
}

// DeleteCustomer removes a customer
// @Summary Delete customer
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /customers/{id} [delete]
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	if _, err := h.customerService.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Customer deleted successfully"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusUnprocessableEntity, []customer.FieldError{{
			Field:   "body",
			Message: "invalid JSON body",
		}})
		return false
	}
	return true
}

func customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid customer id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *customer.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusUnprocessableEntity, ve.Fields)
	case errors.Is(err, customer.ErrCustomerNotFound):
		respondError(w, http.StatusNotFound, "Customer not found")
	default:
		slog.ErrorContext(r.Context(), "customer request failed",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
