package probamatrix

// WhichSQLiteDriver reports the database/sql driver used for matrix indexes:
// "sqlite3" (mattn, cgo) or "sqlite" (modernc, pure Go).
func WhichSQLiteDriver() string {
	return whichSQLiteDriver
}
