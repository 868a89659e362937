package store

import (
	"context"
	"sort"
	"sync"

	"github.com/satonic/artexchange/internal/models"
)

type allowanceKey struct {
	owner   string
	spender string
}

type memoryState struct {
	lastAssetID uint64
	assets      map[uint64]models.Asset
	hashes      map[string]uint64
	listings    map[uint64]models.Listing
	balances    map[string]models.Amount
	allowances  map[allowanceKey]models.Amount
	sales       []models.Sale
}

func newMemoryState() *memoryState {
	return &memoryState{
		assets:     make(map[uint64]models.Asset),
		hashes:     make(map[string]uint64),
		listings:   make(map[uint64]models.Listing),
		balances:   make(map[string]models.Amount),
		allowances: make(map[allowanceKey]models.Amount),
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		lastAssetID: s.lastAssetID,
		assets:      make(map[uint64]models.Asset, len(s.assets)),
		hashes:      make(map[string]uint64, len(s.hashes)),
		listings:    make(map[uint64]models.Listing, len(s.listings)),
		balances:    make(map[string]models.Amount, len(s.balances)),
		allowances:  make(map[allowanceKey]models.Amount, len(s.allowances)),
		sales:       append([]models.Sale(nil), s.sales...),
	}
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.hashes {
		c.hashes[k] = v
	}
	for k, v := range s.listings {
		c.listings[k] = copyListing(v)
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.allowances {
		c.allowances[k] = v
	}
	return c
}

func copyListing(l models.Listing) models.Listing {
	if l.Bidder != nil {
		bidder := *l.Bidder
		l.Bidder = &bidder
	}
	return l
}

// MemoryLedger is a Ledger held in process memory. Update works on a copy of
// the state that replaces the committed state only when fn succeeds.
type MemoryLedger struct {
	mu    sync.RWMutex
	state *memoryState
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{state: newMemoryState()}
}

// Update runs fn in a read-write transaction
func (l *MemoryLedger) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	staged := l.state.clone()
	if err := fn(&memoryTx{state: staged}); err != nil {
		return err
	}
	l.state = staged
	return nil
}

// View runs fn in a read-only transaction
func (l *MemoryLedger) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	return fn(&memoryTx{state: l.state, readOnly: true})
}

// Close is a no-op
func (l *MemoryLedger) Close() error {
	return nil
}

type memoryTx struct {
	state    *memoryState
	readOnly bool
}

func (t *memoryTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *memoryTx) NextAssetID(_ context.Context) (uint64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	t.state.lastAssetID++
	return t.state.lastAssetID, nil
}

func (t *memoryTx) GetAsset(_ context.Context, id uint64) (*models.Asset, error) {
	asset, ok := t.state.assets[id]
	if !ok {
		return nil, nil
	}
	return &asset, nil
}

func (t *memoryTx) GetAssetByHash(ctx context.Context, hash string) (*models.Asset, error) {
	id, ok := t.state.hashes[hash]
	if !ok {
		return nil, nil
	}
	return t.GetAsset(ctx, id)
}

func (t *memoryTx) InsertAsset(_ context.Context, asset *models.Asset) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.hashes[asset.ContentHash]; ok {
		return ErrDuplicateKey
	}
	if _, ok := t.state.assets[asset.ID]; ok {
		return ErrDuplicateKey
	}
	t.state.assets[asset.ID] = *asset
	t.state.hashes[asset.ContentHash] = asset.ID
	return nil
}

func (t *memoryTx) UpdateAsset(_ context.Context, asset *models.Asset) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.assets[asset.ID] = *asset
	return nil
}

func (t *memoryTx) AssetsByOwner(_ context.Context, owner string) ([]models.Asset, error) {
	assets := []models.Asset{}
	for _, asset := range t.state.assets {
		if asset.Owner == owner {
			assets = append(assets, asset)
		}
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	return assets, nil
}

func (t *memoryTx) GetListing(_ context.Context, assetID uint64) (*models.Listing, error) {
	listing, ok := t.state.listings[assetID]
	if !ok {
		return nil, nil
	}
	listing = copyListing(listing)
	return &listing, nil
}

func (t *memoryTx) SaveListing(_ context.Context, listing *models.Listing) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.listings[listing.AssetID] = copyListing(*listing)
	return nil
}

func (t *memoryTx) DeleteListing(_ context.Context, assetID uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	delete(t.state.listings, assetID)
	return nil
}

func (t *memoryTx) ActiveListings(_ context.Context) ([]models.Listing, error) {
	listings := []models.Listing{}
	for _, listing := range t.state.listings {
		if listing.ForSale {
			listings = append(listings, copyListing(listing))
		}
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].AssetID < listings[j].AssetID })
	return listings, nil
}

func (t *memoryTx) Balance(_ context.Context, address string) (models.Amount, error) {
	return t.state.balances[address], nil
}

func (t *memoryTx) SetBalance(_ context.Context, address string, amount models.Amount) error {
	if err := t.writable(); err != nil {
		return err
	}
	if amount == 0 {
		delete(t.state.balances, address)
		return nil
	}
	t.state.balances[address] = amount
	return nil
}

func (t *memoryTx) Allowance(_ context.Context, owner, spender string) (models.Amount, error) {
	return t.state.allowances[allowanceKey{owner, spender}], nil
}

func (t *memoryTx) SetAllowance(_ context.Context, owner, spender string, amount models.Amount) error {
	if err := t.writable(); err != nil {
		return err
	}
	key := allowanceKey{owner, spender}
	if amount == 0 {
		delete(t.state.allowances, key)
		return nil
	}
	t.state.allowances[key] = amount
	return nil
}

func (t *memoryTx) InsertSale(_ context.Context, sale *models.Sale) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.state.sales = append(t.state.sales, *sale)
	return nil
}

func (t *memoryTx) SalesByAsset(_ context.Context, assetID uint64) ([]models.Sale, error) {
	sales := []models.Sale{}
	for _, sale := range t.state.sales {
		if sale.AssetID == assetID {
			sales = append(sales, sale)
		}
	}
	return sales, nil
}
