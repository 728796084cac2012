package model

// DictEntry is a single dictionary candidate for a reading.
// Entries for the same reading are kept sorted ascending by cost.
type DictEntry struct {
	Surface string `json:"surface"`
	Cost    int16  `json:"cost"`
	LeftID  uint16 `json:"left_id"`
	RightID uint16 `json:"right_id"`
}

// SearchResult pairs a reading with its dictionary entries, as returned
// by predictive prefix search.
type SearchResult struct {
	Reading string      `json:"reading"`
	Entries []DictEntry `json:"entries"`
}

// ConvertedSegment is one segment of a conversion result: the kana reading
// and the surface form chosen for it.
type ConvertedSegment struct {
	Reading string `json:"reading"`
	Surface string `json:"surface"`
}
