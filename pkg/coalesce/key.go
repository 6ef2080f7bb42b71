package coalesce

// BuildKey derives the coalescing key for an (object locator, range
// descriptor) pair. Two requests share a session only when both parts
// match exactly; overlapping but unequal ranges never coalesce.
//
// The separator cannot occur in a URL or a Range header value, so distinct
// pairs can never collide.
func BuildKey(objectLocator, rangeDescriptor string) string {
	return objectLocator + "\n" + rangeDescriptor
}
