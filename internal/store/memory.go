package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"menucost/internal/common"
	"menucost/internal/entity"
)

// Memory is an in-memory Store with real transaction semantics: WithinTx
// works on a copy of the state and publishes it only when fn succeeds.
// Used for tests and for database-less one-shot CLI runs.
type Memory struct {
	mu    sync.RWMutex
	state memState
}

var (
	_ Store = (*Memory)(nil)
	_ Tx    = (*memTx)(nil)
)

type memState struct {
	files       map[string]entity.SourceFile    // by content hash
	ingredients map[string]entity.Ingredient    // by canonical name
	ingByID     map[uuid.UUID]entity.Ingredient // same rows, by id
	recipes     map[string]entity.Recipe        // by canonical name
	lines       map[uuid.UUID][]entity.RecipeIngredient
	prices      []entity.PriceRecord
	rates       []entity.ExchangeRate
	nextRowID   int
}

func NewMemory() *Memory {
	return &Memory{state: memState{
		files:       map[string]entity.SourceFile{},
		ingredients: map[string]entity.Ingredient{},
		ingByID:     map[uuid.UUID]entity.Ingredient{},
		recipes:     map[string]entity.Recipe{},
		lines:       map[uuid.UUID][]entity.RecipeIngredient{},
		nextRowID:   1,
	}}
}

func (s memState) clone() memState {
	c := memState{
		files:       make(map[string]entity.SourceFile, len(s.files)),
		ingredients: make(map[string]entity.Ingredient, len(s.ingredients)),
		ingByID:     make(map[uuid.UUID]entity.Ingredient, len(s.ingByID)),
		recipes:     make(map[string]entity.Recipe, len(s.recipes)),
		lines:       make(map[uuid.UUID][]entity.RecipeIngredient, len(s.lines)),
		prices:      append([]entity.PriceRecord(nil), s.prices...),
		rates:       append([]entity.ExchangeRate(nil), s.rates...),
		nextRowID:   s.nextRowID,
	}
	for k, v := range s.files {
		c.files[k] = v
	}
	for k, v := range s.ingredients {
		c.ingredients[k] = v
	}
	for k, v := range s.ingByID {
		c.ingByID[k] = v
	}
	for k, v := range s.recipes {
		c.recipes[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = append([]entity.RecipeIngredient(nil), v...)
	}
	return c
}

// WithinTx serializes writers; fn's changes become visible atomically or
// not at all.
func (m *Memory) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	if err := fn(&memTx{s: &work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memTx struct {
	s *memState
}

func (t *memTx) RegisterSourceFile(_ context.Context, f *entity.SourceFile) error {
	if prev, ok := t.s.files[f.HashHex]; ok {
		return fmt.Errorf("file %q already loaded as %q: %w", f.Name, prev.Name, common.ErrReferential)
	}
	t.s.files[f.HashHex] = *f
	return nil
}

func (t *memTx) GetOrCreateIngredient(_ context.Context, canonicalName string) (*entity.Ingredient, bool, error) {
	if ing, ok := t.s.ingredients[canonicalName]; ok {
		return &ing, false, nil
	}
	ing := entity.Ingredient{ID: uuid.New(), Name: canonicalName, CreatedAt: time.Now().UTC()}
	t.s.ingredients[canonicalName] = ing
	t.s.ingByID[ing.ID] = ing
	return &ing, true, nil
}

func (t *memTx) FindIngredient(_ context.Context, canonicalName string) (*entity.Ingredient, error) {
	if ing, ok := t.s.ingredients[canonicalName]; ok {
		return &ing, nil
	}
	return nil, fmt.Errorf("ingredient %q: %w", canonicalName, common.ErrNotFound)
}

func (t *memTx) InsertPriceRecord(_ context.Context, rec *entity.PriceRecord) error {
	rec.ID = t.s.nextRowID
	t.s.nextRowID++
	rec.CreatedAt = time.Now().UTC()
	t.s.prices = append(t.s.prices, *rec)
	return nil
}

func (t *memTx) HasPriceRecord(_ context.Context, ingredientID uuid.UUID, effectiveDate time.Time, sourceFileID uuid.UUID) (bool, error) {
	for _, p := range t.s.prices {
		if p.IngredientID == ingredientID && p.EffectiveDate.Equal(effectiveDate) && p.SourceFileID == sourceFileID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) UpsertRecipe(_ context.Context, canonicalName, instructions string) (*entity.Recipe, bool, error) {
	now := time.Now().UTC()
	if rec, ok := t.s.recipes[canonicalName]; ok {
		rec.Instructions = instructions
		rec.UpdatedAt = now
		t.s.recipes[canonicalName] = rec
		return &rec, false, nil
	}
	rec := entity.Recipe{ID: uuid.New(), Name: canonicalName, Instructions: instructions, CreatedAt: now, UpdatedAt: now}
	t.s.recipes[canonicalName] = rec
	return &rec, true, nil
}

func (t *memTx) ReplaceRecipeLines(_ context.Context, recipeID uuid.UUID, lines []entity.RecipeIngredient) error {
	replaced := make([]entity.RecipeIngredient, len(lines))
	for i, l := range lines {
		l.ID = t.s.nextRowID
		t.s.nextRowID++
		l.RecipeID = recipeID
		l.Position = i
		replaced[i] = l
	}
	t.s.lines[recipeID] = replaced
	return nil
}

func (t *memTx) InsertExchangeRate(_ context.Context, rate *entity.ExchangeRate) error {
	rate.ID = t.s.nextRowID
	t.s.nextRowID++
	rate.CreatedAt = time.Now().UTC()
	t.s.rates = append(t.s.rates, *rate)
	return nil
}

func (m *Memory) IngredientByName(_ context.Context, canonicalName string) (*entity.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ing, ok := m.state.ingredients[canonicalName]; ok {
		return &ing, nil
	}
	return nil, fmt.Errorf("ingredient %q: %w", canonicalName, common.ErrNotFound)
}

func (m *Memory) IngredientByID(_ context.Context, id uuid.UUID) (*entity.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ing, ok := m.state.ingByID[id]; ok {
		return &ing, nil
	}
	return nil, fmt.Errorf("ingredient %s: %w", id, common.ErrNotFound)
}

func (m *Memory) RecipeByName(_ context.Context, canonicalName string) (*entity.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.state.recipes[canonicalName]; ok {
		return &rec, nil
	}
	return nil, fmt.Errorf("recipe %q: %w", canonicalName, common.ErrNotFound)
}

func (m *Memory) RecipeLines(_ context.Context, recipeID uuid.UUID) ([]entity.RecipeIngredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]entity.RecipeIngredient(nil), m.state.lines[recipeID]...), nil
}

// PriceAsOf scans the append-only history for the record with the maximum
// effective date <= asOf, breaking date ties by the highest row id (latest
// insertion wins). Never returns a record dated after asOf.
func (m *Memory) PriceAsOf(_ context.Context, ingredientID uuid.UUID, asOf time.Time) (*entity.PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *entity.PriceRecord
	for i := range m.state.prices {
		p := &m.state.prices[i]
		if p.IngredientID != ingredientID || p.EffectiveDate.After(asOf) {
			continue
		}
		if best == nil || p.EffectiveDate.After(best.EffectiveDate) ||
			(p.EffectiveDate.Equal(best.EffectiveDate) && p.ID > best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no price for ingredient %s as of %s: %w",
			ingredientID, asOf.Format("2006-01-02"), common.ErrNotFound)
	}
	out := *best
	return &out, nil
}

func (m *Memory) RateAsOf(_ context.Context, pair string, asOf time.Time) (*entity.ExchangeRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *entity.ExchangeRate
	for i := range m.state.rates {
		r := &m.state.rates[i]
		if r.Pair != pair || r.EffectiveDate.After(asOf) {
			continue
		}
		if best == nil || r.EffectiveDate.After(best.EffectiveDate) ||
			(r.EffectiveDate.Equal(best.EffectiveDate) && r.ID > best.ID) {
			best = r
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no %s rate as of %s: %w", pair, asOf.Format("2006-01-02"), common.ErrNotFound)
	}
	out := *best
	return &out, nil
}
