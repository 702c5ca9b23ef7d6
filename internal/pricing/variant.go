package pricing

// OrderVariants returns the distinct variants with the default one first. The
// remaining variants keep their original order. Ordering affects output only.
func OrderVariants(variants []Variant) []Variant {
	out := make([]Variant, 0, len(variants))
	seen := make(map[int64]struct{}, len(variants))
	defaultIdx := -1
	for _, v := range variants {
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		if v.Default && defaultIdx < 0 {
			defaultIdx = len(out)
		}
		out = append(out, v)
	}
	if defaultIdx > 0 {
		def := out[defaultIdx]
		copy(out[1:defaultIdx+1], out[:defaultIdx])
		out[0] = def
	}
	return out
}
