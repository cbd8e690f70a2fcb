package models

// AllTables returns a slice of all tables in the database.
func AllTables() []interface{} {
	return []interface{}{
		&Album{},
		&Member{},
		&Song{},
	}
}
