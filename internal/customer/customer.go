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

package customer

import (
	"time"
)

// Customer is a CRM contact
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// DefaultStatus is assigned to every newly created customer
const DefaultStatus = StatusLead

// Well-known status labels. Status is free-form; these are the values the
// web client offers.
const (
	StatusLead     = "Lead"
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// CreateInput is the data required to create a customer
type CreateInput struct {
	Name  string `json:"name" validate:"required" example:"Ada Lovelace"`
	Email string `json:"email" validate:"required,email" example:"ada@example.com"`
	Phone string `json:"phone" validate:"required" example:"+44 20 7946 0000"`
}

// UpdateStatusInput is the data required to change a customer's status
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required" example:"Active"`
}
