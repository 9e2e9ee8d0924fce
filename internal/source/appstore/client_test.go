package appstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("us", 5*time.Second, 1, time.Millisecond)
	c.host = server.URL
	return c
}

func TestParseFeedEntryArray(t *testing.T) {
	body := []byte(`{"feed":{"entry":[
		{"title":{"label":"Great"},"content":{"label":"Love it"},"im:rating":{"label":"5"}},
		{"title":{"label":"Bad"},"content":{"label":"Crashes"},"im:rating":{"label":"1"}}
	]}}`)

	entries, err := parseFeed(body)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Great", entries[0].Title.Label)
	assert.Equal(t, "1", entries[1].Rating.Label)
}

func TestParseFeedSingleEntryObject(t *testing.T) {
	body := []byte(`{"feed":{"entry":
		{"title":{"label":"Only one"},"content":{"label":"Fine"},"im:rating":{"label":"3"}}
	}}`)

	entries, err := parseFeed(body)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Only one", entries[0].Title.Label)
}

func TestParseFeedNoEntries(t *testing.T) {
	entries, err := parseFeed([]byte(`{"feed":{}}`))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseFeedInvalidJSON(t *testing.T) {
	_, err := parseFeed([]byte(`not json`))
	assert.Error(t, err)
}

func TestFetchReviewsFiltersAndCleans(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"feed":{"entry":[
			{"title":{"label":"Great App"},"content":{"label":"<b>Love</b> it!"},"im:rating":{"label":"5"}},
			{"title":{"label":"Bogus"},"content":{"label":"rating out of range"},"im:rating":{"label":"7"}},
			{"title":{"label":"No body"},"content":{"label":"   "},"im:rating":{"label":"4"}},
			{"title":{"label":"Bad"},"content":{"label":"Crashes on launch"},"im:rating":{"label":"1"}}
		]}}`))
	})

	reviews, err := client.FetchReviews(context.Background(), "1459969523", 100)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	assert.Equal(t, "great app", reviews[0].ReviewTitle)
	assert.Equal(t, "love it!", reviews[0].ReviewText)
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, "1459969523", reviews[0].ItemID)
	assert.False(t, reviews[0].CollectedAt.IsZero())
	assert.Equal(t, 1, reviews[1].Rating)
}

func TestFetchReviewsHonorsLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"feed":{"entry":[
			{"title":{"label":"a"},"content":{"label":"first review"},"im:rating":{"label":"5"}},
			{"title":{"label":"b"},"content":{"label":"second review"},"im:rating":{"label":"4"}},
			{"title":{"label":"c"},"content":{"label":"third review"},"im:rating":{"label":"3"}}
		]}}`))
	})

	reviews, err := client.FetchReviews(context.Background(), "42", 2)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestFetchReviewsUnknownItem(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchReviews(context.Background(), "999", 100)
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestFetchReviewsServerErrorUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchReviews(context.Background(), "42", 100)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchReviewsEmptyFeed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"feed":{}}`))
	})

	reviews, err := client.FetchReviews(context.Background(), "42", 100)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestFetchReviewsStopsOnShortPage(t *testing.T) {
	var requests int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"feed":{"entry":[
			{"title":{"label":"a"},"content":{"label":"only review"},"im:rating":{"label":"5"}}
		]}}`))
	})

	reviews, err := client.FetchReviews(context.Background(), "42", 100)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, 1, requests)
}
