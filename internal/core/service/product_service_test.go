package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sokoni/marketplace-api/internal/core/domain"
	"github.com/sokoni/marketplace-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubProductRepo struct {
	products       map[string]*domain.Product
	createErr      error
	updateErr      error
	deleteErr      error
	findOwnedCalls int
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[string]*domain.Product)}
}

func cloneProduct(p *domain.Product) *domain.Product {
	clone := *p
	if p.ImageKey != nil {
		key := *p.ImageKey
		clone.ImageKey = &key
	}
	return &clone
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.products[p.ID] = cloneProduct(p)
	return cloneProduct(p), nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (r *stubProductRepo) FindOwned(_ context.Context, id, sellerID string) (*domain.Product, error) {
	r.findOwnedCalls++
	p, ok := r.products[id]
	if !ok || p.SellerID != sellerID {
		return nil, domain.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (r *stubProductRepo) List(_ context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Category != "" && string(p.Category) != filter.Category {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	existing, ok := r.products[p.ID]
	if !ok || existing.SellerID != p.SellerID {
		return nil, domain.ErrProductNotFound
	}
	r.products[p.ID] = cloneProduct(p)
	return cloneProduct(p), nil
}

func (r *stubProductRepo) Delete(_ context.Context, id, sellerID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	p, ok := r.products[id]
	if !ok || p.SellerID != sellerID {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// stubAssetStore mimics the real adapters, including their pre-write
// content-type and size validation.
type stubAssetStore struct {
	blobs     map[string][]byte
	deleteErr error
	nextKey   int
}

func newStubAssetStore() *stubAssetStore {
	return &stubAssetStore{blobs: make(map[string][]byte)}
}

func (s *stubAssetStore) Store(_ context.Context, data []byte, contentType string) (string, error) {
	if contentType != "image/jpeg" && contentType != "image/png" {
		return "", domain.NewValidationError("unsupported image type %q", contentType)
	}
	s.nextKey++
	key := fmt.Sprintf("blob-%d.jpg", s.nextKey)
	s.blobs[key] = data
	return key, nil
}

func (s *stubAssetStore) Delete(_ context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.blobs, key) // absent key: still succeeds
	return nil
}

func (s *stubAssetStore) ResolveURL(key string) string {
	return "http://assets.test/" + key
}

func newTestProductService() (*ProductService, *stubProductRepo, *stubAssetStore) {
	repo := newStubProductRepo()
	assets := newStubAssetStore()
	svc := NewProductService(repo, assets, nil, zerolog.Nop())
	return svc, repo, assets
}

var owner = domain.Identity{ID: "user-a", Name: "Alice", Email: "alice@example.com"}
var stranger = domain.Identity{ID: "user-b", Name: "Mallory", Email: "mallory@example.com"}

func deskInput() ports.CreateProductInput {
	return ports.CreateProductInput{
		Title:         "Desk",
		Price:         1500,
		Category:      "Furniture",
		Description:   "Wooden desk",
		ContactNumber: "254712345678",
		Location:      "Hostel B",
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestProductService_Create_NoImage(t *testing.T) {
	svc, _, _ := newTestProductService()

	p, err := svc.Create(context.Background(), owner, deskInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if p.Sold {
		t.Fatalf("new listing must not be sold")
	}
	if p.ImageURL != nil {
		t.Fatalf("expected nil image reference, got %v", *p.ImageURL)
	}
	if p.Price != 1500 {
		t.Fatalf("expected price 1500, got %v", p.Price)
	}
	if p.SellerID != owner.ID {
		t.Fatalf("expected seller %s, got %s", owner.ID, p.SellerID)
	}
}

func TestProductService_Create_NegativePrice(t *testing.T) {
	svc, repo, assets := newTestProductService()

	input := deskInput()
	input.Price = -1

	var ve *domain.ValidationError
	if _, err := svc.Create(context.Background(), owner, input); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(repo.products) != 0 {
		t.Fatalf("no row should be written, got %d", len(repo.products))
	}
	if len(assets.blobs) != 0 {
		t.Fatalf("no blob should be written, got %d", len(assets.blobs))
	}
}

func TestProductService_Create_NaNPrice(t *testing.T) {
	svc, repo, _ := newTestProductService()

	input := deskInput()
	input.Price = nan()

	var ve *domain.ValidationError
	if _, err := svc.Create(context.Background(), owner, input); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(repo.products) != 0 {
		t.Fatalf("no row should be written")
	}
}

func TestProductService_Create_MissingFields(t *testing.T) {
	svc, repo, _ := newTestProductService()

	for _, mutate := range []func(*ports.CreateProductInput){
		func(in *ports.CreateProductInput) { in.Title = "" },
		func(in *ports.CreateProductInput) { in.Description = " " },
		func(in *ports.CreateProductInput) { in.ContactNumber = "" },
		func(in *ports.CreateProductInput) { in.Location = "" },
		func(in *ports.CreateProductInput) { in.Category = "" },
		func(in *ports.CreateProductInput) { in.Category = "Spaceships" },
	} {
		input := deskInput()
		mutate(&input)
		var ve *domain.ValidationError
		if _, err := svc.Create(context.Background(), owner, input); !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError for %+v, got %v", input, err)
		}
	}
	if len(repo.products) != 0 {
		t.Fatalf("no row should be written, got %d", len(repo.products))
	}
}

func TestProductService_Create_BadImageType(t *testing.T) {
	svc, repo, assets := newTestProductService()

	input := deskInput()
	input.Image = &ports.ImageUpload{Data: []byte("binary"), ContentType: "application/pdf"}

	var ve *domain.ValidationError
	if _, err := svc.Create(context.Background(), owner, input); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(assets.blobs) != 0 {
		t.Fatalf("no orphan blob may exist, got %d", len(assets.blobs))
	}
	if len(repo.products) != 0 {
		t.Fatalf("no row should be written")
	}
}

func TestProductService_Create_WithImage(t *testing.T) {
	svc, _, assets := newTestProductService()

	input := deskInput()
	input.Image = &ports.ImageUpload{Data: []byte("jpeg-bytes"), ContentType: "image/jpeg"}

	p, err := svc.Create(context.Background(), owner, input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if p.ImageURL == nil {
		t.Fatalf("expected resolved image reference")
	}
	if len(assets.blobs) != 1 {
		t.Fatalf("expected 1 stored blob, got %d", len(assets.blobs))
	}
	if *p.ImageURL != "http://assets.test/"+*p.ImageKey {
		t.Fatalf("image reference not resolved: %s", *p.ImageURL)
	}
}

func TestProductService_Create_InsertFailureCleansOrphanBlob(t *testing.T) {
	svc, repo, assets := newTestProductService()
	repo.createErr = errors.New("connection reset")

	input := deskInput()
	input.Image = &ports.ImageUpload{Data: []byte("jpeg-bytes"), ContentType: "image/jpeg"}

	if _, err := svc.Create(context.Background(), owner, input); err == nil {
		t.Fatalf("expected error")
	}
	if len(assets.blobs) != 0 {
		t.Fatalf("orphaned blob should have been cleaned up, %d left", len(assets.blobs))
	}
}

// ---------------------------------------------------------------------------
// Update / MarkSold
// ---------------------------------------------------------------------------

func createDesk(t *testing.T, svc *ProductService, image *ports.ImageUpload) *domain.Product {
	t.Helper()
	input := deskInput()
	input.Image = image
	p, err := svc.Create(context.Background(), owner, input)
	if err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	return p
}

func TestProductService_Update_Partial(t *testing.T) {
	svc, _, _ := newTestProductService()
	p := createDesk(t, svc, nil)

	newPrice := 1200.0
	updated, err := svc.Update(context.Background(), owner, p.ID, ports.UpdateProductInput{Price: &newPrice})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Price != 1200 {
		t.Fatalf("expected price 1200, got %v", updated.Price)
	}
	if updated.Title != "Desk" || updated.Location != "Hostel B" {
		t.Fatalf("unspecified fields must retain previous values: %+v", updated)
	}
}

func TestProductService_Update_OwnershipEnforced(t *testing.T) {
	svc, repo, _ := newTestProductService()
	p := createDesk(t, svc, nil)

	title := "Hijacked"
	_, err := svc.Update(context.Background(), stranger, p.ID, ports.UpdateProductInput{Title: &title})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for non-owner, got %v", err)
	}
	if repo.products[p.ID].Title != "Desk" {
		t.Fatalf("listing must be unchanged after unauthorized update")
	}
}

func TestProductService_Update_NegativePriceRejected(t *testing.T) {
	svc, repo, _ := newTestProductService()
	p := createDesk(t, svc, nil)

	bad := -5.0
	var ve *domain.ValidationError
	if _, err := svc.Update(context.Background(), owner, p.ID, ports.UpdateProductInput{Price: &bad}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if repo.products[p.ID].Price != 1500 {
		t.Fatalf("price must be unchanged")
	}
}

func TestProductService_Update_ReplacesImage(t *testing.T) {
	svc, _, assets := newTestProductService()
	p := createDesk(t, svc, &ports.ImageUpload{Data: []byte("old"), ContentType: "image/jpeg"})
	oldKey := *p.ImageKey

	updated, err := svc.Update(context.Background(), owner, p.ID, ports.UpdateProductInput{
		Image: &ports.ImageUpload{Data: []byte("new"), ContentType: "image/png"},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if *updated.ImageKey == oldKey {
		t.Fatalf("image key should have changed")
	}
	if _, ok := assets.blobs[oldKey]; ok {
		t.Fatalf("old blob must be deleted after a successful replacement")
	}
	if _, ok := assets.blobs[*updated.ImageKey]; !ok {
		t.Fatalf("new blob must exist")
	}
	if *updated.ImageURL != "http://assets.test/"+*updated.ImageKey {
		t.Fatalf("image reference must resolve to the new blob, got %s", *updated.ImageURL)
	}
}

func TestProductService_Update_RowFailureKeepsOldBlob(t *testing.T) {
	svc, repo, assets := newTestProductService()
	p := createDesk(t, svc, &ports.ImageUpload{Data: []byte("old"), ContentType: "image/jpeg"})
	oldKey := *p.ImageKey

	repo.updateErr = errors.New("connection reset")
	_, err := svc.Update(context.Background(), owner, p.ID, ports.UpdateProductInput{
		Image: &ports.ImageUpload{Data: []byte("new"), ContentType: "image/jpeg"},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := assets.blobs[oldKey]; !ok {
		t.Fatalf("old blob must survive a failed row update")
	}
	if len(assets.blobs) != 1 {
		t.Fatalf("the new blob should have been cleaned up, %d blobs left", len(assets.blobs))
	}
}

func TestProductService_MarkSold_Toggles(t *testing.T) {
	svc, repo, _ := newTestProductService()
	p := createDesk(t, svc, nil)

	if repo.products[p.ID].Sold {
		t.Fatalf("fresh listing must be unsold")
	}

	first, err := svc.MarkSold(context.Background(), owner, p.ID)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if !first.Sold {
		t.Fatalf("expected sold=true after first toggle")
	}

	second, err := svc.MarkSold(context.Background(), owner, p.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if second.Sold {
		t.Fatalf("expected sold=false after second toggle")
	}
}

func TestProductService_MarkSold_SingleFetch(t *testing.T) {
	svc, repo, _ := newTestProductService()
	p := createDesk(t, svc, nil)

	repo.findOwnedCalls = 0
	if _, err := svc.MarkSold(context.Background(), owner, p.ID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if repo.findOwnedCalls != 1 {
		t.Fatalf("expected one ownership fetch per toggle, got %d", repo.findOwnedCalls)
	}
}

func TestProductService_MarkSold_OwnershipEnforced(t *testing.T) {
	svc, repo, _ := newTestProductService()
	p := createDesk(t, svc, nil)

	if _, err := svc.MarkSold(context.Background(), stranger, p.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if repo.products[p.ID].Sold {
		t.Fatalf("listing must be unchanged")
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestProductService_Delete_RemovesRowAndBlob(t *testing.T) {
	svc, repo, assets := newTestProductService()
	p := createDesk(t, svc, &ports.ImageUpload{Data: []byte("img"), ContentType: "image/jpeg"})

	if err := svc.Delete(context.Background(), owner, p.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := repo.products[p.ID]; ok {
		t.Fatalf("row must be gone")
	}
	if len(assets.blobs) != 0 {
		t.Fatalf("blob must be gone, %d left", len(assets.blobs))
	}
}

func TestProductService_Delete_BlobAlreadyAbsent(t *testing.T) {
	svc, repo, assets := newTestProductService()
	p := createDesk(t, svc, &ports.ImageUpload{Data: []byte("img"), ContentType: "image/jpeg"})

	// Simulate the blob disappearing out of band.
	delete(assets.blobs, *p.ImageKey)

	if err := svc.Delete(context.Background(), owner, p.ID); err != nil {
		t.Fatalf("delete must succeed even when the blob is already absent: %v", err)
	}
	if _, ok := repo.products[p.ID]; ok {
		t.Fatalf("row must be gone")
	}
}

func TestProductService_Delete_BlobDeleteFailureIsSwallowed(t *testing.T) {
	svc, repo, assets := newTestProductService()
	p := createDesk(t, svc, &ports.ImageUpload{Data: []byte("img"), ContentType: "image/jpeg"})
	assets.deleteErr = errors.New("storage unavailable")

	if err := svc.Delete(context.Background(), owner, p.ID); err != nil {
		t.Fatalf("row deletion is authoritative; blob failure must not surface: %v", err)
	}
	if _, ok := repo.products[p.ID]; ok {
		t.Fatalf("row must be gone regardless of blob outcome")
	}
}

func TestProductService_Delete_OwnershipEnforced(t *testing.T) {
	svc, repo, _ := newTestProductService()
	p := createDesk(t, svc, nil)

	if err := svc.Delete(context.Background(), stranger, p.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, ok := repo.products[p.ID]; !ok {
		t.Fatalf("row must still exist")
	}
}

// ---------------------------------------------------------------------------
// Reads & cache
// ---------------------------------------------------------------------------

func TestProductService_GetByID_NotFound(t *testing.T) {
	svc, _, _ := newTestProductService()

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductService_List_FiltersByCategory(t *testing.T) {
	svc, _, _ := newTestProductService()
	createDesk(t, svc, nil)

	electronics := deskInput()
	electronics.Title = "Radio"
	electronics.Category = "Electronics"
	if _, err := svc.Create(context.Background(), owner, electronics); err != nil {
		t.Fatalf("seed create failed: %v", err)
	}

	got, err := svc.List(context.Background(), ports.ProductFilter{Category: "Furniture"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Desk" {
		t.Fatalf("expected only the desk, got %+v", got)
	}
}

type recordingCache struct {
	entries     map[string]*domain.Product
	sets, gets  int
	invalidates int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]*domain.Product)}
}

func (c *recordingCache) Get(_ context.Context, id string) (*domain.Product, error) {
	c.gets++
	p, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (c *recordingCache) Set(_ context.Context, p *domain.Product) error {
	c.sets++
	c.entries[p.ID] = cloneProduct(p)
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, id string) error {
	c.invalidates++
	delete(c.entries, id)
	return nil
}

func TestProductService_GetByID_ReadThroughCache(t *testing.T) {
	repo := newStubProductRepo()
	assets := newStubAssetStore()
	cache := newRecordingCache()
	svc := NewProductService(repo, assets, cache, zerolog.Nop())

	p := createDesk(t, svc, nil)

	if _, err := svc.GetByID(context.Background(), p.ID); err != nil {
		t.Fatalf("first get failed: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected cache fill on miss, sets=%d", cache.sets)
	}

	// Remove the row: a second read must now be served from the cache.
	delete(repo.products, p.ID)
	got, err := svc.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("cached get failed: %v", err)
	}
	if got.Title != "Desk" {
		t.Fatalf("unexpected cached product: %+v", got)
	}
}

func TestProductService_Update_InvalidatesCache(t *testing.T) {
	repo := newStubProductRepo()
	assets := newStubAssetStore()
	cache := newRecordingCache()
	svc := NewProductService(repo, assets, cache, zerolog.Nop())

	p := createDesk(t, svc, nil)
	if _, err := svc.GetByID(context.Background(), p.ID); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	price := 999.0
	if _, err := svc.Update(context.Background(), owner, p.ID, ports.UpdateProductInput{Price: &price}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if cache.invalidates != 1 {
		t.Fatalf("expected cache invalidation on update, got %d", cache.invalidates)
	}

	got, err := svc.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Price != 999 {
		t.Fatalf("stale price served after update: %v", got.Price)
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
