// Package store is the operator journal: a local SQLite record of every
// mutation the console successfully applied to the admin API.
//
// The journal is write-mostly. Workflows append through the Journal
// interface after the backend confirms a change; the journal command reads
// it back with ListAuditLog. It never stands in for client or plan state,
// which always comes from the backend.
//
// SQLiteStore uses modernc.org/sqlite (pure Go, no cgo). MockStore is an
// in-memory Journal for tests.
//
// # Entries
//
//	onboard_client  create_client  update_client  toggle_client
//	assign_plans    delete_client  create_plan    update_plan   delete_plan
//
// Each entry carries the actor (credential subject), target type and id,
// a UTC timestamp and an optional JSON detail map.
package store
