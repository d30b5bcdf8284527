// Package domain implements quality control for biodiversity occurrence
// records, such as GBIF downloads of fish species in the Danube River Basin.
//
// # Tables
//
// Records are held in a [Table]: order-preserving rows with named columns.
// A nil cell is missing; NaN, blank strings, and the literal "NA" are
// treated as missing too. Column names are bound to semantic roles
// (latitude, species, ...) once at the start of every call with
// [Table.Resolve].
//
// # Stages
//
// Each stage is an independent function over a table. The usual order is:
//
//	raw -> NormalizeDMS -> CheckCoordinates -> CheckDates -> SpatialSubset -> DetectDuplicates
//
// Stages never modify their input. Per-row findings (out of range,
// missing) are returned as row index lists in a report; only structural
// problems are errors.
//
// # Coordinates
//
// Symbolic DMS values look like 45°30'15"N. Southern and western
// directions are negative. In separate-column mode the sign of the degrees
// column, including -0, selects the hemisphere.
//
// # Dates
//
// A table carries exactly one of: a year column; year, month, and day
// columns; or a dd/mm/yyyy date column. Year bounds are inclusive and
// default to [DefaultMinYear, current year].
//
// # Duplicates
//
// Two rows are duplicates when they agree exactly on rounded latitude,
// rounded longitude, spatial unit, resolved date, and species. A row with
// any missing key field is never a duplicate. Record ids are deterministic
// SHA-256 hashes of the key, see [RecordID].
package domain
