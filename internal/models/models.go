// Package models provides the data structures shared by the ledger engine,
// the storage backends and the command line layer.
package models
