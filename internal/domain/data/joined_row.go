package data

// Combine concatenates left fields followed by right fields, in original column order.
// Either side may be nil, in which case that side is padded with empty fields of the given width.
func Combine(left Row, leftWidth int, right Row, rightWidth int) Row {
	joined := make(Row, 0, leftWidth+rightWidth)

	if left != nil {
		joined = append(joined, left...)
	} else {
		joined = appendEmpty(joined, leftWidth)
	}

	if right != nil {
		joined = append(joined, right...)
	} else {
		joined = appendEmpty(joined, rightWidth)
	}

	return joined
}

func appendEmpty(r Row, n int) Row {
	for i := 0; i < n; i++ {
		r = append(r, "")
	}
	return r
}
