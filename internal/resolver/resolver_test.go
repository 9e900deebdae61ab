package resolver

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/store"
)

// fakeStore serves lookups from a static collection->field->value->id table
// and counts calls so caching behavior is observable.
type fakeStore struct {
	docs  map[string]map[string]string // collection -> value -> id (single field)
	calls int
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) FindID(_ context.Context, collection, _, value string) (any, bool, error) {
	f.calls++
	id, ok := f.docs[collection][value]
	if !ok {
		return nil, false, nil
	}
	return id, true, nil
}

func (f *fakeStore) FindIDFold(_ context.Context, collection, _, value string) (any, bool, error) {
	f.calls++
	for v, id := range f.docs[collection] {
		if strings.EqualFold(v, value) {
			return id, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeStore) EnsureUniqueIndex(context.Context, string, string) error { return nil }

func (f *fakeStore) BulkWrite(context.Context, string, []store.WriteOp) (store.BulkResult, error) {
	return store.BulkResult{}, nil
}

func partsCandidates() []Candidate {
	return []Candidate{{Collection: "parts", Field: "item_number"}}
}

func TestResolveExact(t *testing.T) {
	fs := &fakeStore{docs: map[string]map[string]string{
		"parts": {"4521.0": "id-verbatim", "4521": "id-stripped"},
	}}
	r := New(fs, zap.NewNop(), StripDotZero(), LeadingZero())

	res, found, err := r.Resolve(context.Background(), partsCandidates(), "4521.0")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "id-verbatim", res.ID)
	assert.Equal(t, "exact", res.Strategy)
}

func TestResolveStripDotZeroFallback(t *testing.T) {
	fs := &fakeStore{docs: map[string]map[string]string{
		"parts": {"4521": "id-stripped"},
	}}
	r := New(fs, zap.NewNop(), StripDotZero(), LeadingZero())

	res, found, err := r.Resolve(context.Background(), partsCandidates(), "4521.0")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "id-stripped", res.ID)
	assert.Equal(t, "4521", res.Matched)
	assert.Equal(t, "strip_dot_zero", res.Strategy)
}

func TestResolveLeadingZeroFallback(t *testing.T) {
	fs := &fakeStore{docs: map[string]map[string]string{
		"parts": {"04521": "id-zero"},
	}}
	r := New(fs, zap.NewNop(), StripDotZero(), LeadingZero())

	res, found, err := r.Resolve(context.Background(), partsCandidates(), "4521.0")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "id-zero", res.ID)
	assert.Equal(t, "04521", res.Matched)
	assert.Equal(t, "leading_zero", res.Strategy)
}

func TestResolveNoMatch(t *testing.T) {
	fs := &fakeStore{docs: map[string]map[string]string{"parts": {}}}
	r := New(fs, zap.NewNop(), StripDotZero(), LeadingZero())

	_, found, err := r.Resolve(context.Background(), partsCandidates(), "4521.0")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolveCaseInsensitive(t *testing.T) {
	fs := &fakeStore{docs: map[string]map[string]string{
		"customers": {"C77": "id-cust"},
	}}
	r := New(fs, zap.NewNop())

	res, found, err := r.Resolve(context.Background(),
		[]Candidate{{Collection: "customers", Field: "customer_number"}}, "c77")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "id-cust", res.ID)
	assert.Equal(t, "fold", res.Strategy)
}

func TestResolveMultiCollectionOrder(t *testing.T) {
	fs := &fakeStore{docs: map[string]map[string]string{
		"customers": {"Acme": "id-cust"},
		"suppliers": {"Acme": "id-supp"},
	}}
	r := New(fs, zap.NewNop())

	candidates := []Candidate{
		{Collection: "customers", Field: "company_name"},
		{Collection: "suppliers", Field: "company_name"},
	}

	res, found, err := r.Resolve(context.Background(), candidates, "Acme")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "customers", res.Collection)

	// Supplier-only names fall through to the second candidate.
	fs.docs["customers"] = map[string]string{}
	r = New(fs, zap.NewNop())
	res, found, err = r.Resolve(context.Background(), candidates, "Acme")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "suppliers", res.Collection)
}

func TestResolveCachesHitsAndMisses(t *testing.T) {
	fs := &fakeStore{docs: map[string]map[string]string{
		"parts": {"4521": "id"},
	}}
	r := New(fs, zap.NewNop())

	ctx := context.Background()
	_, _, err := r.Resolve(ctx, partsCandidates(), "4521")
	require.NoError(t, err)
	calls := fs.calls

	_, found, err := r.Resolve(ctx, partsCandidates(), "4521")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, calls, fs.calls, "cached hit must not touch the store")

	_, found, err = r.Resolve(ctx, partsCandidates(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	missCalls := fs.calls

	_, _, err = r.Resolve(ctx, partsCandidates(), "missing")
	require.NoError(t, err)
	assert.Equal(t, missCalls, fs.calls, "cached miss must not touch the store")
}

func TestResolveEmptyCode(t *testing.T) {
	fs := &fakeStore{docs: map[string]map[string]string{}}
	r := New(fs, zap.NewNop())

	_, found, err := r.Resolve(context.Background(), partsCandidates(), "   ")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, fs.calls)
}
