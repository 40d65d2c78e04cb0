package models

import (
	"sort"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

// LedgerEntry is the per-asset balance of an account. Only FreeVolume is
// mutated by trade settlement; LockedVolume and BorrowedVolume participate in
// equity reporting.
type LedgerEntry struct {
	FreeVolume     decimal.Decimal `json:"free_volume"`
	LockedVolume   decimal.Decimal `json:"locked_volume"`
	BorrowedVolume decimal.Decimal `json:"borrowed_volume"`
}

// Account owns one order book, one position book and one ledger. It is a pure
// data store: sufficiency checks and all mutations are driven by the
// settlement engine, which is the account's sole writer.
type Account struct {
	id            uuid.UUID
	primaryAsset  string
	ledger        map[string]*LedgerEntry
	orders        []*Order
	positions     []*Position
	orderNonce    uint
	tradeNonce    uint
	positionNonce uint
}

func NewAccount(primaryAsset string, deposits map[string]decimal.Decimal) *Account {
	account := &Account{
		id:           uuid.New(),
		primaryAsset: primaryAsset,
		ledger:       make(map[string]*LedgerEntry),
	}

	for asset, amount := range deposits {
		account.Deposit(asset, amount)
	}

	return account
}

func (a *Account) ID() uuid.UUID {
	return a.id
}

func (a *Account) PrimaryAsset() string {
	return a.primaryAsset
}

func (a *Account) NextOrderID() uint {
	a.orderNonce++
	return a.orderNonce
}

func (a *Account) NextTradeID() uint {
	a.tradeNonce++
	return a.tradeNonce
}

func (a *Account) NextPositionID() uint {
	a.positionNonce++
	return a.positionNonce
}

func (a *Account) Deposit(asset string, amount decimal.Decimal) {
	entry, found := a.ledger[asset]
	if !found {
		entry = &LedgerEntry{}
		a.ledger[asset] = entry
	}

	entry.FreeVolume = entry.FreeVolume.Add(amount)
}

// Withdraw reduces the free balance of the asset. The caller is responsible
// for checking sufficiency beforehand.
func (a *Account) Withdraw(asset string, amount decimal.Decimal) {
	entry, found := a.ledger[asset]
	if !found {
		entry = &LedgerEntry{}
		a.ledger[asset] = entry
	}

	entry.FreeVolume = entry.FreeVolume.Sub(amount)
}

// AssetBalance returns a copy of the ledger entry for the asset; a zero entry
// if the asset has never been touched.
func (a *Account) AssetBalance(asset string) LedgerEntry {
	entry, found := a.ledger[asset]
	if !found {
		return LedgerEntry{}
	}

	return *entry
}

// Balance is the free volume of the account's primary asset.
func (a *Account) Balance() decimal.Decimal {
	return a.AssetBalance(a.primaryAsset).FreeVolume
}

// Assets returns the asset names present in the ledger, sorted for
// deterministic iteration.
func (a *Account) Assets() []string {
	assets := make([]string, 0, len(a.ledger))
	for asset := range a.ledger {
		assets = append(assets, asset)
	}

	sort.Strings(assets)
	return assets
}

// LedgerSnapshot returns a deep copy of the ledger.
func (a *Account) LedgerSnapshot() map[string]LedgerEntry {
	snapshot := make(map[string]LedgerEntry)
	if err := copier.Copy(&snapshot, a.ledger); err != nil {
		return nil
	}

	return snapshot
}

func (a *Account) AddOrder(order *Order) {
	a.orders = append(a.orders, order)
}

func (a *Account) Orders() []*Order {
	out := make([]*Order, len(a.orders))
	copy(out, a.orders)
	return out
}

func (a *Account) FindOrder(id uint) *Order {
	for _, order := range a.orders {
		if order.ID() == id {
			return order
		}
	}

	return nil
}

// PendingOrders returns the orders awaiting a price crossing, in creation order.
func (a *Account) PendingOrders() []*Order {
	result := make([]*Order, 0)
	for _, order := range a.orders {
		if order.Status() == OrderStatusPending {
			result = append(result, order)
		}
	}

	return result
}

func (a *Account) AddPosition(position *Position) {
	a.positions = append(a.positions, position)
}

func (a *Account) FindPosition(id uint) *Position {
	for _, position := range a.positions {
		if position.ID() == id {
			return position
		}
	}

	return nil
}

// FindOpenPosition returns the open position for the symbol/direction pair,
// if any. There is at most one: open trades aggregate into it.
func (a *Account) FindOpenPosition(symbol string, direction PositionDirection) *Position {
	for _, position := range a.positions {
		if !position.IsClosed() && position.Symbol() == symbol && position.Direction() == direction {
			return position
		}
	}

	return nil
}

func (a *Account) OpenPositions() []*Position {
	result := make([]*Position, 0)
	for _, position := range a.positions {
		if !position.IsClosed() {
			result = append(result, position)
		}
	}

	return result
}
