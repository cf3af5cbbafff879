package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuseHits_HigherScoreReplaces(t *testing.T) {
	semantic := []SearchHit{{Date: "2024-06-15", Score: 10, Source: SourceSemantic}}
	lexical := []SearchHit{{Date: "2024-06-15", Score: 12, Source: SourceLexical}}

	hits, err := fuseHits(5, semantic, lexical)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, SourceLexical, hits[0].Source)
	assert.Equal(t, 12.0, hits[0].Score)
}

func TestFuseHits_LowerScoreDoesNotReplace(t *testing.T) {
	semantic := []SearchHit{{Date: "2024-06-15", Score: 10, Source: SourceSemantic}}
	direct := []SearchHit{{Date: "2024-06-15", Score: 8, Source: SourceDirect}}

	hits, err := fuseHits(5, semantic, direct)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, SourceSemantic, hits[0].Source)
	assert.Equal(t, 10.0, hits[0].Score)
}

func TestFuseHits_EqualScoreKeepsEarlierStrategy(t *testing.T) {
	semantic := []SearchHit{{Date: "2024-06-15", Score: 10, Source: SourceSemantic}}
	direct := []SearchHit{{Date: "2024-06-15", Score: 10, Source: SourceDirect}}

	hits, err := fuseHits(5, semantic, direct)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, SourceSemantic, hits[0].Source)
}

func TestFuseHits_SortsByScoreWithStableTieBreak(t *testing.T) {
	semantic := []SearchHit{
		{Date: "2024-06-01", Score: 7, Source: SourceSemantic},
		{Date: "2024-06-02", Score: 7, Source: SourceSemantic},
	}
	direct := []SearchHit{
		{Date: "2024-06-03", Score: 9, Source: SourceDirect},
	}

	hits, err := fuseHits(5, semantic, direct)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, Date("2024-06-03"), hits[0].Date)
	// Equal scores preserve insertion order.
	assert.Equal(t, Date("2024-06-01"), hits[1].Date)
	assert.Equal(t, Date("2024-06-02"), hits[2].Date)
}

func TestFuseHits_TruncatesToLimit(t *testing.T) {
	direct := []SearchHit{
		{Date: "2024-06-01", Score: 3, Source: SourceDirect},
		{Date: "2024-06-02", Score: 2, Source: SourceDirect},
		{Date: "2024-06-03", Score: 1, Source: SourceDirect},
	}

	hits, err := fuseHits(2, direct)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, Date("2024-06-01"), hits[0].Date)
	assert.Equal(t, Date("2024-06-02"), hits[1].Date)
}

func TestFuseHits_NegativeLimitErrors(t *testing.T) {
	_, err := fuseHits(-1, []SearchHit{{Date: "2024-06-01", Score: 1}})
	assert.Error(t, err)
}

func TestFuseHits_EmptyInput(t *testing.T) {
	hits, err := fuseHits(5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
