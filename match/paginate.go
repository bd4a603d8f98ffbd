package match

// Paginate slices a ranked result set. Total reflects the filtered count
// before slicing, and HasMore is true exactly while offset+limit < total.
// A non-positive limit means "everything".
func Paginate(sorted []Scored, offset, limit int) Page {
	total := len(sorted)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = total
	}

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	items := make([]Scored, end-start)
	copy(items, sorted[start:end])

	return Page{
		Items:   items,
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		HasMore: offset+limit < total,
	}
}
