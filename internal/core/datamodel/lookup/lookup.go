package lookup

import "time"

// Rows read through sqlx; column names follow db/migrations.

type Employee struct {
	ID         int64     `db:"id"`
	EmployeeNo string    `db:"employee_no"`
	FullName   string    `db:"full_name"`
	Department string    `db:"department"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
}

type EventType struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	IsActive    bool   `db:"is_active"`
}

type Currency struct {
	ID       int64  `db:"id"`
	Code     string `db:"code"`
	Name     string `db:"name"`
	Symbol   string `db:"symbol"`
	IsActive bool   `db:"is_active"`
}

type ExpenseType struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	IsActive    bool   `db:"is_active"`
}
