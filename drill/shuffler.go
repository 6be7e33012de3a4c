package drill

import "maps"

// Variant is one request body candidate: a mapping from property name to
// the JSON value that will be serialized for it.
type Variant map[string]any

// Shuffle enumerates every non-empty subset of node's children as a list
// of payload variants.
//
// The flat phase walks bitmasks 1 through 2^n-1, little-endian over the
// children in declaration order, so a node with n leaf children yields
// exactly 2^n-1 variants. Children that are themselves objects contribute a
// null placeholder in this phase. Each object child is then shuffled
// recursively and every one of its variants is substituted into every flat
// combination, with the expansions appended after the flat phase in
// combination order, then child order, then sub-variant order.
func Shuffle(node *Node) []Variant {
	type subVariants struct {
		name     string
		variants []Variant
	}

	properties := make([]*Node, 0, len(node.Children))

	var subs []subVariants

	for _, child := range node.Children {
		properties = append(properties, child)

		if len(child.Children) > 0 {
			subs = append(subs, subVariants{
				name:     child.Name,
				variants: Shuffle(child),
			})
		}
	}

	var combs []Variant

	total := 1<<len(properties) - 1
	for mask := 1; mask <= total; mask++ {
		c := make(Variant)

		for i, p := range properties {
			if mask&(1<<i) == 0 {
				continue
			}

			c[p.Name] = p.Value
		}

		combs = append(combs, c)
	}

	// Substitute every sub-variant into every existing combination. The
	// expansions are collected separately so they land after the flat
	// phase and are not expanded again themselves.
	var extra []Variant

	for _, c := range combs {
		for _, sub := range subs {
			for _, v := range sub.variants {
				expanded := maps.Clone(c)
				expanded[sub.name] = map[string]any(v)
				extra = append(extra, expanded)
			}
		}
	}

	return append(combs, extra...)
}
