// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel shared by every table
//   - order.go: orders and order_items
//   - mapping_template.go: field_mapping_templates, mapping stored as jsonb
//   - import_log.go: import_logs, error details stored as jsonb
package models
