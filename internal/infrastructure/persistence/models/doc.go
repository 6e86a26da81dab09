// Package models contains the GORM persistence models of the invoicing
// tables. Domain types stay free of ORM tags; each model converts to and
// from its domain type with ToDomain and FromDomain.
//
// Tables:
//   - invoices, invoice_items: the invoice aggregate
//   - payments: invoice payments and on-account receipts
//   - invoice_activities: the audit trail
//   - customer_balances, product_stocks: the ledgers
package models
