package types

// Collection names, usable with Store.GetTable and in transaction scopes.
const (
	PersonsTable    = "persons"
	EntriesTable    = "entries"
	ProductsTable   = "products_cache"
	FavoritesTable  = "favorites"
	RecentsTable    = "recents"
	WeightLogsTable = "weight_logs"
	MetaTable       = "meta"
)

// StandardTableNames lists all collections in creation order.
var StandardTableNames = []string{
	PersonsTable,
	EntriesTable,
	ProductsTable,
	FavoritesTable,
	RecentsTable,
	WeightLogsTable,
	MetaTable,
}

// PersonScopedTables lists the collections whose records reference a person
// and must be removed together with it.
var PersonScopedTables = []string{
	EntriesTable,
	FavoritesTable,
	RecentsTable,
	WeightLogsTable,
}

// IsStandardTable reports whether name is one of StandardTableNames.
func IsStandardTable(name string) bool {
	for _, n := range StandardTableNames {
		if n == name {
			return true
		}
	}
	return false
}
