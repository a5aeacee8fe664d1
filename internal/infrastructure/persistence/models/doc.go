// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and SiteModel shared columns
//   - site.go: sites and users
//   - ledger.go: accounts, apartments, vendors, cash accounts, charges, expenses
//   - document.go: receipts, payments, their items and numbering sequences
//   - template.go: recurring dues and expense templates
package models
