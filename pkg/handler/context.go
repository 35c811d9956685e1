package handler

// DI for all handlers.

import (
	"database/sql"
)

type DBContext struct {
	DB *sql.DB
	// Cap for the ?top= parameter of the cluster listing.
	MaxTop int
}
