package util

import "math/rand"

func InPlaceFilter[T any](s *[]T, p func(T) bool) {
	i := 0
	for _, e := range *s {
		if p(e) {
			(*s)[i] = e
			i++
		}
	}
	*s = (*s)[:i]
}

// Shuffled returns a shuffled copy of s, leaving s untouched
func Shuffled[T any](s []T, random *rand.Rand) []T {
	shuffled := make([]T, len(s))
	copy(shuffled, s)

	random.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled
}
