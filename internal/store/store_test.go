package store_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fclairamb/objectstored/internal/store"
)

func TestAddGetRoundTrip(t *testing.T) {
	s := store.New()

	require.NoError(t, s.Add("/a", []byte("hello")))

	data, err := s.Get("/a")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func TestAddTwiceConflicts(t *testing.T) {
	s := store.New()

	require.NoError(t, s.Add("/a", []byte("hello")))

	err := s.Add("/a", []byte("world"))
	require.Error(t, err)

	var storeErr *store.Error
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, store.AlreadyExists, storeErr.Status)
}

func TestGetMissing(t *testing.T) {
	s := store.New()

	_, err := s.Get("/missing")
	require.Error(t, err)

	var storeErr *store.Error
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, store.FileNotFound, storeErr.Status)
}

func TestRemoveMissingIsIdempotentFailure(t *testing.T) {
	s := store.New()

	err := s.Remove("/nope")
	var storeErr *store.Error
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, store.FileNotFound, storeErr.Status)

	// Repeating the remove keeps returning the same result.
	err = s.Remove("/nope")
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, store.FileNotFound, storeErr.Status)
}

func TestRemoveThenAddAgainSucceeds(t *testing.T) {
	s := store.New()

	require.NoError(t, s.Add("/a", []byte("1")))
	require.NoError(t, s.Remove("/a"))
	require.NoError(t, s.Add("/a", []byte("2")))

	data, err := s.Get("/a")
	require.NoError(t, err)
	require.Equal(t, []byte("2"), data)
}

func TestListCoverage(t *testing.T) {
	s := store.New()

	require.NoError(t, s.Add("/a", []byte("1")))
	require.NoError(t, s.Add("/b", []byte("2")))
	require.NoError(t, s.Remove("/a"))
	require.NoError(t, s.Add("/c", []byte("3")))

	require.ElementsMatch(t, []string{"/b", "/c"}, s.List())
}

func TestConcurrentOverlappingKeysIsSafe(t *testing.T) {
	s := store.New()

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			key := string(rune('a' + i%26))
			_ = s.Add(key, []byte{byte(i)})
			_, _ = s.Get(key)
			_ = s.List()
		}(i)
	}

	wg.Wait()
}
