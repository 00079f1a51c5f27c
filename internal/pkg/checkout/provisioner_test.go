package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/catalog"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/linkstore"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/pagarme"
)

// fakeProvider is an in-memory payment-link API served over HTTP.
type fakeProvider struct {
	mu       sync.Mutex
	links    map[string]map[string]interface{}
	creates  int
	failWith int
}

func newFakeProvider(t *testing.T) (*fakeProvider, *pagarme.Client) {
	t.Helper()
	f := &fakeProvider{links: map[string]map[string]interface{}{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, pagarme.NewClient("sk_test", srv.URL, 2*time.Second)
}

func (f *fakeProvider) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/paymentlinks":
		f.creates++
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := fmt.Sprintf("pl_created%d", f.creates)
		link := map[string]interface{}{
			"id":     id,
			"name":   body["name"],
			"status": "active",
			"url":    "https://pay.example/" + id,
		}
		f.links[id] = link
		_ = json.NewEncoder(w).Encode(link)
	case r.Method == http.MethodGet && r.URL.Path == "/paymentlinks":
		name := r.URL.Query().Get("name")
		data := []map[string]interface{}{}
		for _, l := range f.links {
			if l["name"] == name && l["status"] == "active" {
				data = append(data, l)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	case r.Method == http.MethodGet:
		id := r.URL.Path[len("/paymentlinks/"):]
		l, ok := f.links[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(l)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestProvisioner(t *testing.T, links *catalog.Links, provider LinkProvider) (*Provisioner, *linkstore.FileStore) {
	t.Helper()
	store := linkstore.NewFileStore(filepath.Join(t.TempDir(), "paymentlinks.json"))
	p := NewProvisioner(catalog.Default(), links, provider, store, "ns")
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return p, store
}

func emptyLinks() *catalog.Links {
	return catalog.ResolveLinks(context.Background(), catalog.Default(), nil, "", nil)
}

func TestProvision_UnknownPlan(t *testing.T) {
	p, _ := newTestProvisioner(t, emptyLinks(), pagarme.NewClient("", "", 0))
	_, err := p.Provision(context.Background(), "nope", nil)
	assert.True(t, errors.Is(err, catalog.ErrPlanNotFound))
}

func TestProvision_NotConfiguredFallsBackForEveryPlan(t *testing.T) {
	p, _ := newTestProvisioner(t, emptyLinks(), pagarme.NewClient("", "", 0))
	for _, plan := range catalog.Default().List() {
		res, err := p.Provision(context.Background(), plan.ID, nil)
		require.NoError(t, err)
		assert.True(t, res.Fallback, plan.ID)
		assert.Equal(t, SourceStatic, res.Source)
		assert.Equal(t, ErrCodeNotConfigured, res.ErrorCode)
		assert.Equal(t, plan.StaticFallbackURL, res.URL)
		assert.NotEmpty(t, res.URL)
	}
}

func TestProvision_PreProvisionedLinkTrustedWithoutCredential(t *testing.T) {
	links := catalog.ResolveLinks(context.Background(), catalog.Default(),
		map[string]string{"experience": "pl_envLink1"}, "https://pay.example", nil)
	p, store := newTestProvisioner(t, links, pagarme.NewClient("", "", 0))

	tracking := &linkstore.Tracking{LeadID: "lead-1"}
	res, err := p.Provision(context.Background(), "experience", tracking)
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, SourceEnv, res.Source)
	assert.True(t, res.Reused)
	assert.Equal(t, "https://pay.example/pl_envLink1", res.URL)

	rec, err := store.Get(context.Background(), "pl_envLink1")
	require.NoError(t, err)
	assert.Equal(t, "ns_experience_1700000000000", rec.OrderCode)
	require.NotNil(t, rec.Tracking)
	assert.Equal(t, "lead-1", rec.Tracking.LeadID)
}

func TestProvision_SecondCallReusesByName(t *testing.T) {
	fake, client := newFakeProvider(t)
	p, store := newTestProvisioner(t, emptyLinks(), client)
	ctx := context.Background()

	first, err := p.Provision(ctx, "experience", nil)
	require.NoError(t, err)
	assert.Equal(t, SourceCreated, first.Source)
	assert.False(t, first.Reused)

	second, err := p.Provision(ctx, "experience", &linkstore.Tracking{Fbclid: "abc"})
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, SourceReuse, second.Source)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, 1, fake.creates)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "only the call with tracking writes a mapping")
}

func TestProvision_InactivePreProvisionedLinkFallsThrough(t *testing.T) {
	fake, client := newFakeProvider(t)
	fake.links["pl_envOld"] = map[string]interface{}{
		"id": "pl_envOld", "status": "inactive", "url": "https://pay.example/pl_envOld",
	}
	links := catalog.ResolveLinks(context.Background(), catalog.Default(),
		map[string]string{"experience": "pl_envOld"}, "https://pay.example", nil)
	p, _ := newTestProvisioner(t, links, client)

	res, err := p.Provision(context.Background(), "experience", nil)
	require.NoError(t, err)
	assert.Equal(t, SourceCreated, res.Source)
	assert.NotEqual(t, "pl_envOld", res.PaymentLinkID)
}

func TestProvision_ActivePreProvisionedLinkVerified(t *testing.T) {
	fake, client := newFakeProvider(t)
	fake.links["pl_envNew"] = map[string]interface{}{
		"id": "pl_envNew", "status": "active", "url": "https://pay.example/pl_envNew",
	}
	links := catalog.ResolveLinks(context.Background(), catalog.Default(),
		map[string]string{"experience": "pl_envNew"}, "https://pay.example", nil)
	p, _ := newTestProvisioner(t, links, client)

	res, err := p.Provision(context.Background(), "experience", nil)
	require.NoError(t, err)
	assert.Equal(t, SourceEnv, res.Source)
	assert.True(t, res.Reused)
	assert.Equal(t, 0, fake.creates)
}

func TestProvision_CreateFailureFallsBack(t *testing.T) {
	fake, client := newFakeProvider(t)
	fake.failWith = http.StatusUnprocessableEntity
	p, store := newTestProvisioner(t, emptyLinks(), client)

	res, err := p.Provision(context.Background(), "transformation", &linkstore.Tracking{LeadID: "l"})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, ErrCodeProvider, res.ErrorCode)
	assert.Equal(t, res.Plan.StaticFallbackURL, res.URL)
	assert.Error(t, res.Cause)

	all, err := store.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProvision_NetworkFailureIsInternal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	p, _ := newTestProvisioner(t, emptyLinks(), pagarme.NewClient("sk", srv.URL, time.Second))

	res, err := p.Provision(context.Background(), "experience", nil)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, ErrCodeInternal, res.ErrorCode)
}

func TestLinkName(t *testing.T) {
	p, _ := newTestProvisioner(t, emptyLinks(), nil)
	plan, _ := catalog.Default().Get("experience")
	assert.Equal(t, "ns-experience-39999", p.LinkName(plan))
}
