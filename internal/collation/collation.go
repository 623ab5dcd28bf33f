// Package collation packages the small slice of MySQL's collation catalog
// this inspector actually needs: the minimum and maximum byte width per
// character, which decides whether a CHAR column can be treated as
// fixed-size on disk.
package collation

// Width holds the per-character byte-width bounds for one collation.
type Width struct {
	Min int
	Max int
}

// Binary is the collation id MySQL reserves for "binary" (my_charset_bin);
// columns using it are always treated as binary strings.
const Binary = 63

// Latin1 is the collation id for latin1_swedish_ci, the historical default.
const Latin1 = 8

// byWidth is a static, frozen lookup keyed by collation id. It only needs
// to be accurate enough to distinguish fixed-width single-byte charsets
// from the variable-width multi-byte ones; unknown ids are treated as
// variable-width (Min != Max), which is the conservative choice.
var byWidth = map[int]Width{
	Binary: {Min: 1, Max: 1},
	Latin1: {Min: 1, Max: 1},
	// utf8mb4_general_ci / utf8mb4_0900_ai_ci and friends
	45: {Min: 1, Max: 4},
	46: {Min: 1, Max: 4},
	255: {Min: 1, Max: 4},
	// utf8mb3_general_ci and friends
	33: {Min: 1, Max: 3},
	// ascii
	11: {Min: 1, Max: 1},
	// utf16/utf32 fixed-width variants
	54: {Min: 2, Max: 2},
	60: {Min: 4, Max: 4},
}

// Lookup returns the byte-width bounds for collation id, defaulting to a
// variable-width entry when the id is not in the table.
func Lookup(id int) Width {
	if w, ok := byWidth[id]; ok {
		return w
	}
	return Width{Min: 1, Max: 4}
}
