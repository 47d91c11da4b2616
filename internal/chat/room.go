package chat

// RoomID derives the canonical conversation id for an unordered pair of user
// ids. The two ids are sorted lexicographically so RoomID(a, b) == RoomID(b, a).
// When both ids are equal the result degenerates to "room_x_x"; that case is
// not guarded.
func RoomID(idA, idB string) string {
	lo, hi := idA, idB
	if hi < lo {
		lo, hi = hi, lo
	}
	return "room_" + lo + "_" + hi
}
