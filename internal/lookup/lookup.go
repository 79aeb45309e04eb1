package lookup

import (
	lookupDatamodel "github.com/frahmantamala/claim-management/internal/core/datamodel/lookup"
)

// Reference data is read-only for the claim core; rows are maintained by
// migrations and the seeder.

type Employee struct {
	ID         int64  `json:"id"`
	EmployeeNo string `json:"employeeNo"`
	FullName   string `json:"fullName"`
	Department string `json:"department"`
	IsActive   bool   `json:"isActive"`
}

type EventType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Currency struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type ExpenseType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type EventTypesResponse struct {
	EventTypes []EventType `json:"eventTypes"`
}

type CurrenciesResponse struct {
	Currencies []Currency `json:"currencies"`
}

type ExpenseTypesResponse struct {
	ExpenseTypes []ExpenseType `json:"expenseTypes"`
}

// ----------------- MAPPING -----------------

func EmployeeFromDataModel(e *lookupDatamodel.Employee) *Employee {
	return &Employee{
		ID:         e.ID,
		EmployeeNo: e.EmployeeNo,
		FullName:   e.FullName,
		Department: e.Department,
		IsActive:   e.IsActive,
	}
}

func EventTypeFromDataModel(e *lookupDatamodel.EventType) EventType {
	return EventType{ID: e.ID, Name: e.Name, Description: e.Description}
}

func CurrencyFromDataModel(c *lookupDatamodel.Currency) Currency {
	return Currency{ID: c.ID, Code: c.Code, Name: c.Name, Symbol: c.Symbol}
}

func ExpenseTypeFromDataModel(e *lookupDatamodel.ExpenseType) ExpenseType {
	return ExpenseType{ID: e.ID, Name: e.Name, Description: e.Description}
}
