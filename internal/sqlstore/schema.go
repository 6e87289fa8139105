package sqlstore

import "fmt"

const SchemaVersion = 1

// tableDef is formatted with the table name so a merge can build its
// replacement table with the same shape.
const tableDef = `
CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY NOT NULL,
    score REAL NOT NULL DEFAULT 0.0,
    sort_text TEXT NOT NULL,
    data BLOB NOT NULL
)`

const metaDef = `
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY NOT NULL,
    value REAL NOT NULL
)`

const scanDef = `
CREATE TEMP TABLE IF NOT EXISTS scan (
    id INTEGER PRIMARY KEY NOT NULL,
    sort_text TEXT NOT NULL,
    data BLOB NOT NULL
)`

const (
	metaReferenceTime = "reference_time"
	metaHalfLife      = "half_life"
)

func createTable(name string) string {
	return fmt.Sprintf(tableDef, name)
}
