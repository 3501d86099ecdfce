// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of ORM tags; each model converts to and from its
// domain type with ToDomain and FromDomain.
//
// Structure:
//   - base.go: shared identity, timestamp and version columns
//   - realestate.go: projects, sales, expenses
//   - finance.go: payment_plans, expense_payments, checks
package models
