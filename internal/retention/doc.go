// Package retention keeps a bounded, most-recent history of datasets per owner.
//
// A Store serializes inserts and deletes per owner and hands every eviction
// plus insertion to its Backend as one atomic Commit, so readers never observe
// more than Capacity datasets for an owner. Backends exist for an in-process
// arena, SQLite and the gorm relational drivers (PostgreSQL, MySQL).
package retention
