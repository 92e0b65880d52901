// Package memstore is an in-memory store.Store for tests. It keeps rows in insertion order and enforces the same
// uniqueness keys as the Postgres schema.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// Store is safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	products     []domain.Product
	variants     []domain.Variant
	identifiers  []domain.Identifier
	pricing      []domain.Pricing
	metadata     []domain.Metadata
	states       []domain.InventoryStateRow
	transactions []domain.Transaction
	orders       []domain.SalesOrder
	tours        []domain.Tour
	shows        []domain.Show
	tourSales    []domain.TourSale
	totals       []domain.VenueNightTotal

	failures map[string]error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now, failures: map[string]error{}}
}

// FailOn makes the named method (e.g. "CreateTransaction") return err until
// cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) fail(method string) error {
	return s.failures[method]
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// ---- catalog ----

func (s *Store) FindProductBySourceID(_ context.Context, source domain.Source, sourceID string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindProductBySourceID"); err != nil {
		return domain.Product{}, err
	}
	for _, p := range s.products {
		if p.Source == source && p.SourceID == sourceID {
			return p, nil
		}
	}
	return domain.Product{}, store.NotFound("product", sourceID)
}

func (s *Store) CreateProduct(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateProduct"); err != nil {
		return err
	}
	for _, existing := range s.products {
		if p.SourceID != "" && existing.Source == p.Source && existing.SourceID == p.SourceID {
			return fmt.Errorf("duplicate product source id %q", p.SourceID)
		}
	}
	p.ID = newID(p.ID)
	p.CreatedAt = s.now()
	s.products = append(s.products, *p)
	return nil
}

func (s *Store) CountProducts(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products), nil
}

func (s *Store) FindVariantBySKU(_ context.Context, sku string) (domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindVariantBySKU"); err != nil {
		return domain.Variant{}, err
	}
	for _, v := range s.variants {
		if v.SKU == sku {
			return v, nil
		}
	}
	return domain.Variant{}, store.NotFound("variant", sku)
}

func (s *Store) ListVariantRefs(context.Context) ([]domain.VariantRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListVariantRefs"); err != nil {
		return nil, err
	}
	refs := make([]domain.VariantRef, 0, len(s.variants))
	for _, v := range s.variants {
		refs = append(refs, domain.VariantRef{ID: v.ID, SKU: v.SKU})
	}
	return refs, nil
}

func (s *Store) CreateVariant(_ context.Context, v *domain.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateVariant"); err != nil {
		return err
	}
	for _, existing := range s.variants {
		if existing.SKU == v.SKU {
			return fmt.Errorf("duplicate variant sku %q", v.SKU)
		}
	}
	v.ID = newID(v.ID)
	v.CreatedAt = s.now()
	s.variants = append(s.variants, *v)
	return nil
}

func (s *Store) FindIdentifierByValue(_ context.Context, value string) (domain.Identifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindIdentifierByValue"); err != nil {
		return domain.Identifier{}, err
	}
	for _, id := range s.identifiers {
		if id.Value == value {
			return id, nil
		}
	}
	return domain.Identifier{}, store.NotFound("identifier", value)
}

func (s *Store) FindIdentifier(_ context.Context, identifierType, value string) (domain.Identifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.identifiers {
		if id.Type == identifierType && id.Value == value {
			return id, nil
		}
	}
	return domain.Identifier{}, store.NotFound("identifier", identifierType+"/"+value)
}

func (s *Store) CreateIdentifier(_ context.Context, id *domain.Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateIdentifier"); err != nil {
		return err
	}
	for _, existing := range s.identifiers {
		if existing.Type == id.Type && existing.Value == id.Value {
			return fmt.Errorf("duplicate identifier %s/%s", id.Type, id.Value)
		}
	}
	id.ID = newID(id.ID)
	id.CreatedAt = s.now()
	s.identifiers = append(s.identifiers, *id)
	return nil
}

func (s *Store) UpdateIdentifierVariant(_ context.Context, id, variantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.identifiers {
		if s.identifiers[i].ID == id {
			s.identifiers[i].VariantID = variantID
			return nil
		}
	}
	return store.NotFound("identifier", id.String())
}

func (s *Store) FindPricing(_ context.Context, key domain.PricingKey) (domain.Pricing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindPricing"); err != nil {
		return domain.Pricing{}, err
	}
	for _, p := range s.pricing {
		if samePricingKey(p.PricingKey, key) {
			return p, nil
		}
	}
	return domain.Pricing{}, store.NotFound("pricing", string(key.PriceType))
}

func (s *Store) CreatePricing(_ context.Context, p *domain.Pricing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreatePricing"); err != nil {
		return err
	}
	for _, existing := range s.pricing {
		if samePricingKey(existing.PricingKey, p.PricingKey) {
			return fmt.Errorf("duplicate pricing %s", p.PriceType)
		}
	}
	p.ID = newID(p.ID)
	p.UpdatedAt = s.now()
	s.pricing = append(s.pricing, *p)
	return nil
}

func (s *Store) UpdatePricingAmount(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pricing {
		if s.pricing[i].ID == id {
			s.pricing[i].Amount = amount
			s.pricing[i].UpdatedAt = s.now()
			return nil
		}
	}
	return store.NotFound("pricing", id.String())
}

func samePricingKey(a, b domain.PricingKey) bool {
	return a.VariantID == b.VariantID && a.PriceType == b.PriceType &&
		a.Source == b.Source && a.EffectiveFrom.Equal(b.EffectiveFrom)
}

func (s *Store) FindMetadata(_ context.Context, variantID uuid.UUID) (domain.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metadata {
		if m.VariantID == variantID {
			return m, nil
		}
	}
	return domain.Metadata{}, store.NotFound("metadata", variantID.String())
}

func (s *Store) CreateMetadata(_ context.Context, m *domain.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.metadata {
		if existing.VariantID == m.VariantID {
			return fmt.Errorf("duplicate metadata for variant %s", m.VariantID)
		}
	}
	m.ID = newID(m.ID)
	m.UpdatedAt = s.now()
	s.metadata = append(s.metadata, *m)
	return nil
}

func (s *Store) UpdateMetadata(_ context.Context, m *domain.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.metadata {
		if s.metadata[i].ID == m.ID {
			m.UpdatedAt = s.now()
			s.metadata[i] = *m
			return nil
		}
	}
	return store.NotFound("metadata", m.ID.String())
}

// ---- inventory ----

func (s *Store) FindInventoryState(_ context.Context, key domain.StateKey) (domain.InventoryStateRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindInventoryState"); err != nil {
		return domain.InventoryStateRow{}, err
	}
	for _, st := range s.states {
		if st.StateKey == key {
			return st, nil
		}
	}
	return domain.InventoryStateRow{}, store.NotFound("inventory state", string(key.State))
}

func (s *Store) ListInventoryStates(_ context.Context, variantID uuid.UUID) ([]domain.InventoryStateRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.InventoryStateRow
	for _, st := range s.states {
		if st.VariantID == variantID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *Store) CreateInventoryState(_ context.Context, st *domain.InventoryStateRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateInventoryState"); err != nil {
		return err
	}
	for _, existing := range s.states {
		if existing.StateKey == st.StateKey {
			return fmt.Errorf("duplicate inventory state %s", st.State)
		}
	}
	st.ID = newID(st.ID)
	st.UpdatedAt = s.now()
	s.states = append(s.states, *st)
	return nil
}

func (s *Store) UpdateInventoryState(_ context.Context, id uuid.UUID, quantity int, lastCountedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateInventoryState"); err != nil {
		return err
	}
	for i := range s.states {
		if s.states[i].ID == id {
			s.states[i].Quantity = quantity
			if lastCountedAt != nil {
				s.states[i].LastCountedAt = lastCountedAt
			}
			s.states[i].UpdatedAt = s.now()
			return nil
		}
	}
	return store.NotFound("inventory state", id.String())
}

func (s *Store) CreateTransaction(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateTransaction"); err != nil {
		return err
	}
	tx.ID = newID(tx.ID)
	tx.CreatedAt = s.now()
	s.transactions = append(s.transactions, *tx)
	return nil
}

// ---- sales ----

func (s *Store) SalesOrderExists(_ context.Context, orderNumber int64, sku string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNumber == orderNumber && o.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateSalesOrder(_ context.Context, o *domain.SalesOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateSalesOrder"); err != nil {
		return err
	}
	o.ID = newID(o.ID)
	o.CreatedAt = s.now()
	s.orders = append(s.orders, *o)
	return nil
}

func (s *Store) GetTour(_ context.Context, id uuid.UUID) (domain.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tours {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Tour{}, store.NotFound("tour", id.String())
}

func (s *Store) GetShow(_ context.Context, id uuid.UUID) (domain.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range s.shows {
		if sh.ID == id {
			return sh, nil
		}
	}
	return domain.Show{}, store.NotFound("show", id.String())
}

func (s *Store) EarliestShow(_ context.Context, tourID uuid.UUID) (domain.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var shows []domain.Show
	for _, sh := range s.shows {
		if sh.TourID == tourID {
			shows = append(shows, sh)
		}
	}
	if len(shows) == 0 {
		return domain.Show{}, store.NotFound("show for tour", tourID.String())
	}
	sort.SliceStable(shows, func(i, j int) bool { return shows[i].Date.Before(shows[j].Date) })
	return shows[0], nil
}

func (s *Store) FindShow(_ context.Context, tourID uuid.UUID, venue string, date time.Time) (domain.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range s.shows {
		if sh.TourID == tourID && sh.Venue == venue && sh.Date.Equal(date) {
			return sh, nil
		}
	}
	return domain.Show{}, store.NotFound("show", venue)
}

func (s *Store) CreateShow(_ context.Context, sh *domain.Show) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateShow"); err != nil {
		return err
	}
	sh.ID = newID(sh.ID)
	sh.CreatedAt = s.now()
	s.shows = append(s.shows, *sh)
	return nil
}

func (s *Store) CreateTourSale(_ context.Context, ts *domain.TourSale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateTourSale"); err != nil {
		return err
	}
	ts.ID = newID(ts.ID)
	ts.CreatedAt = s.now()
	s.tourSales = append(s.tourSales, *ts)
	return nil
}

func (s *Store) VenueNightTotalExists(_ context.Context, showID uuid.UUID, saleDate time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.totals {
		if t.ShowID == showID && t.SaleDate.Equal(saleDate) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateVenueNightTotal(_ context.Context, t *domain.VenueNightTotal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateVenueNightTotal"); err != nil {
		return err
	}
	t.ID = newID(t.ID)
	t.CreatedAt = s.now()
	s.totals = append(s.totals, *t)
	return nil
}

// ---- seeding and inspection ----

// AddTour seeds a tour, assigning an id when t.ID is nil.
func (s *Store) AddTour(t domain.Tour) domain.Tour {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = newID(t.ID)
	s.tours = append(s.tours, t)
	return t
}

// AddShow seeds a show, assigning an id when sh.ID is nil.
func (s *Store) AddShow(sh domain.Show) domain.Show {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.ID = newID(sh.ID)
	s.shows = append(s.shows, sh)
	return sh
}

func (s *Store) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Product(nil), s.products...)
}

func (s *Store) Variants() []domain.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Variant(nil), s.variants...)
}

func (s *Store) Identifiers() []domain.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Identifier(nil), s.identifiers...)
}

func (s *Store) Pricing() []domain.Pricing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Pricing(nil), s.pricing...)
}

func (s *Store) Metadata() []domain.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Metadata(nil), s.metadata...)
}

func (s *Store) InventoryStates() []domain.InventoryStateRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.InventoryStateRow(nil), s.states...)
}

func (s *Store) Transactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Transaction(nil), s.transactions...)
}

func (s *Store) SalesOrders() []domain.SalesOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SalesOrder(nil), s.orders...)
}

func (s *Store) Shows() []domain.Show {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Show(nil), s.shows...)
}

func (s *Store) TourSales() []domain.TourSale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TourSale(nil), s.tourSales...)
}

func (s *Store) VenueNightTotals() []domain.VenueNightTotal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.VenueNightTotal(nil), s.totals...)
}

// StateQuantity returns the quantity for key, or -1 when no row exists.
func (s *Store) StateQuantity(key domain.StateKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.states {
		if st.StateKey == key {
			return st.Quantity
		}
	}
	return -1
}

// VariantID returns the id of the variant with sku, or uuid.Nil.
func (s *Store) VariantID(sku string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.variants {
		if v.SKU == sku {
			return v.ID
		}
	}
	return uuid.Nil
}
