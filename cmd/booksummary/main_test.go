package main

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booking(cinema string, booked, total int) string {
	return `{"type": "showing_booking", "data": {"showing": {"title": "t", "start_time": "2017-01-01T10:00:00+09:00",` +
		` "end_time": "2017-01-01T12:00:00+09:00", "cinema_name": "` + cinema + `", "screen": "s", "source": "x",` +
		` "total_seat_count": ` + strconv.Itoa(total) + `}, "book_status": "available", "book_seat_count": ` + strconv.Itoa(booked) +
		`, "record_time": "2017-01-01T09:00:00+09:00"}}`
}

func TestSummarize(t *testing.T) {
	input := strings.Join([]string{
		booking("cinema_a", 10, 100),
		booking("cinema_b", 5, 50),
		``,
		`{"type": "movie", "data": {"title": "m"}}`,
		`not json`,
		booking("ｃｉｎｅｍａ_a", 20, 100),
	}, "\n")

	sum, err := summarize(strings.NewReader(input), "")
	require.NoError(t, err)
	assert.Equal(t, summary{Booked: 35, Total: 250, Lines: 3}, sum)

	sum, err = summarize(strings.NewReader(input), "cinema_a")
	require.NoError(t, err)
	assert.Equal(t, summary{Booked: 30, Total: 200, Lines: 2}, sum)

	sum, err = summarize(strings.NewReader(input), "cinema_c")
	require.NoError(t, err)
	assert.Zero(t, sum.Lines)
}
