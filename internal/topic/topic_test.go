package topic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterestLevelPriorityScore(t *testing.T) {
	cases := []struct {
		a, b InterestLevel
		want int
	}{
		{a: 3, b: 3, want: 6},
		{a: 1, b: 5, want: 1},
		{a: 5, b: 1, want: 1},
		{a: 0, b: 0, want: 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.a.PriorityScore(tc.b))
	}
}

func TestSubscriptionsPushMax(t *testing.T) {
	subs := NewSubscriptions()
	var top Topic
	for i := 0; i < MaxSubscriptions; i++ {
		top[0] = byte(i)
		top[1] = byte(i >> 8)
		require.NoError(t, subs.Push(NewSubscription(top, InterestLevel(1))))
	}
	require.Equal(t, MaxSubscriptions, subs.Len())

	err := subs.Push(NewSubscription(top, InterestLevel(1)))
	require.ErrorIs(t, err, ErrMaxSubscriptionReached)
}

func TestSubscriptionsDecodeMax(t *testing.T) {
	raw := make([]byte, SubscriptionSize*(MaxSubscriptions+1))
	_, err := DecodeSubscriptions(raw)
	require.ErrorIs(t, err, ErrMaxSubscriptionReached)
}

func TestSubscriptionsDecodeInvalidSize(t *testing.T) {
	_, err := DecodeSubscriptions(make([]byte, SubscriptionSize+1))
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestSubscriptionsRoundTrip(t *testing.T) {
	subs := NewSubscriptions()
	var topicA, topicB Topic
	topicA[0] = 1
	topicB[0] = 2
	require.NoError(t, subs.Push(NewSubscription(topicA, InterestLevel(10))))
	require.NoError(t, subs.Push(NewSubscription(topicB, InterestLevel(20))))

	decoded, err := DecodeSubscriptions(subs.Bytes())
	require.NoError(t, err)
	require.Equal(t, subs.Iter(), decoded.Iter())
}

func TestTopicCompareOrdering(t *testing.T) {
	var a, b Topic
	a[31] = 1
	b[31] = 2
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.Equal(t, 0, a.Compare(a))
}
