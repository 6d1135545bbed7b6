package escrow

import (
	"errors"
	"math/big"
	"testing"

	"marketledger/core/state"
	"marketledger/native/catalog"
	"marketledger/native/fees"
	"marketledger/native/registry"
	"marketledger/native/reputation"
	"marketledger/native/token"
	store "marketledger/storage"
)

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

const (
	price   = 100_000000
	funding = 500_000000
)

type fixture struct {
	tokens     *token.Ledger
	sellers    *registry.Ledger
	products   *catalog.Ledger
	treasury   *fees.Treasury
	reputation *reputation.Engine
	engine     *Engine
	owner      [20]byte
	vault      [20]byte
	seller     [20]byte
	buyer      [20]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manager := state.NewManager(store.NewMemDB())
	f := &fixture{
		tokens:   token.NewLedger(manager),
		sellers:  registry.NewLedger(manager),
		products: catalog.NewLedger(manager),
		owner:    addr(1),
		vault:    addr(9),
		seller:   addr(2),
		buyer:    addr(3),
	}
	f.tokens.SetMinter(f.owner)
	f.treasury = fees.NewTreasury(manager, f.tokens)
	f.treasury.SetOwner(f.owner)
	f.treasury.SetVault(f.vault)
	f.reputation = reputation.NewEngine(f.sellers)

	f.engine = NewEngine(NewLedger(manager))
	f.engine.SetProducts(f.products)
	f.engine.SetSellers(f.sellers)
	f.engine.SetTokens(f.tokens)
	f.engine.SetTreasury(f.treasury)
	f.engine.SetReporter(f.reputation)
	f.engine.SetVault(f.vault)

	if err := f.sellers.Put(&registry.Seller{Addr: f.seller, Name: "Acme"}); err != nil {
		t.Fatalf("seed seller: %v", err)
	}
	return f
}

func (f *fixture) listProduct(t *testing.T, id, inventory uint64) {
	t.Helper()
	err := f.products.Put(&catalog.Product{
		ID:        id,
		Seller:    f.seller,
		Name:      "Widget",
		Price:     big.NewInt(price),
		Inventory: inventory,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func (f *fixture) fundBuyer(t *testing.T, buyer [20]byte) {
	t.Helper()
	if err := f.tokens.Mint(f.owner, buyer, big.NewInt(funding)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := f.tokens.Approve(buyer, f.vault, big.NewInt(funding)); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func (f *fixture) balance(t *testing.T, who [20]byte) *big.Int {
	t.Helper()
	balance, err := f.tokens.BalanceOf(who)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

func assertBalance(t *testing.T, got *big.Int, want int64) {
	t.Helper()
	if got.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("expected balance %d, got %s", want, got)
	}
}

func TestPurchaseEscrowsFunds(t *testing.T) {
	f := newFixture(t)
	f.listProduct(t, 1, 2)
	f.fundBuyer(t, f.buyer)

	purchase, err := f.engine.Purchase(1, f.buyer)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if purchase.Status != PurchasePaid {
		t.Fatalf("expected paid status, got %v", purchase.Status)
	}
	assertBalance(t, f.balance(t, f.buyer), funding-price)
	assertBalance(t, f.balance(t, f.vault), price)
	assertBalance(t, f.balance(t, f.seller), 0)

	product, _, err := f.products.Get(1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Inventory != 1 {
		t.Fatalf("expected inventory 1, got %d", product.Inventory)
	}
}

func TestPurchaseGuards(t *testing.T) {
	f := newFixture(t)
	f.listProduct(t, 1, 1)
	f.fundBuyer(t, f.buyer)

	if _, err := f.engine.Purchase(42, f.buyer); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("unknown product: expected ErrNotFound, got %v", err)
	}
	if _, err := f.engine.Purchase(1, f.seller); !errors.Is(err, ErrSellerOwnProduct) {
		t.Fatalf("self purchase: expected ErrSellerOwnProduct, got %v", err)
	}
	if _, err := f.engine.Purchase(1, addr(4)); !errors.Is(err, token.ErrInsufficientAllowance) {
		t.Fatalf("unfunded buyer: expected ErrInsufficientAllowance, got %v", err)
	}

	if _, err := f.engine.Purchase(1, f.buyer); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := f.engine.Purchase(1, f.buyer); !errors.Is(err, ErrAlreadyPurchased) {
		t.Fatalf("double purchase: expected ErrAlreadyPurchased, got %v", err)
	}

	f.fundBuyer(t, addr(5))
	if _, err := f.engine.Purchase(1, addr(5)); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("exhausted inventory: expected ErrOutOfStock, got %v", err)
	}
}

func TestConfirmSettlesWithFee(t *testing.T) {
	f := newFixture(t)
	f.listProduct(t, 1, 1)
	f.fundBuyer(t, f.buyer)
	if _, err := f.engine.Purchase(1, f.buyer); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	purchase, err := f.engine.Confirm(1, f.buyer)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if purchase.Status != PurchaseConfirmed {
		t.Fatalf("expected confirmed status, got %v", purchase.Status)
	}

	// 5% of 100 units accrues as fee, 95 pay out to the seller.
	assertBalance(t, f.balance(t, f.seller), 95_000000)
	assertBalance(t, f.balance(t, f.vault), 5_000000)
	accrued, err := f.treasury.Accrued()
	if err != nil {
		t.Fatalf("accrued: %v", err)
	}
	assertBalance(t, accrued, 5_000000)

	seller, _, err := f.sellers.Get(f.seller)
	if err != nil {
		t.Fatalf("get seller: %v", err)
	}
	if seller.ConfirmedPurchases != 1 {
		t.Fatalf("expected 1 confirmed purchase, got %d", seller.ConfirmedPurchases)
	}
}

func TestConfirmGuards(t *testing.T) {
	f := newFixture(t)
	f.listProduct(t, 1, 2)
	f.fundBuyer(t, f.buyer)

	if _, err := f.engine.Confirm(1, f.buyer); !errors.Is(err, ErrPurchaseNotFound) {
		t.Fatalf("expected ErrPurchaseNotFound, got %v", err)
	}
	if _, err := f.engine.Purchase(1, f.buyer); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := f.engine.Confirm(1, f.buyer); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.engine.Confirm(1, f.buyer); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}
	if _, err := f.engine.Cancel(1, f.buyer); !errors.Is(err, ErrAlreadySold) {
		t.Fatalf("cancel after confirm: expected ErrAlreadySold, got %v", err)
	}
}

func TestCancelSplitsPenalty(t *testing.T) {
	f := newFixture(t)
	f.listProduct(t, 1, 1)
	f.fundBuyer(t, f.buyer)
	if _, err := f.engine.Purchase(1, f.buyer); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	purchase, err := f.engine.Cancel(1, f.buyer)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if purchase.Status != PurchaseCanceled {
		t.Fatalf("expected canceled status, got %v", purchase.Status)
	}

	// 10% penalty on 100 units: buyer gets 90 back, the seller keeps the
	// penalty minus the 3% treasury cut.
	assertBalance(t, f.balance(t, f.buyer), funding-price+90_000000)
	assertBalance(t, f.balance(t, f.seller), 9_700_000)
	assertBalance(t, f.balance(t, f.vault), 300_000)
	accrued, err := f.treasury.Accrued()
	if err != nil {
		t.Fatalf("accrued: %v", err)
	}
	assertBalance(t, accrued, 300_000)

	if _, err := f.engine.Cancel(1, f.buyer); !errors.Is(err, ErrAlreadyCanceled) {
		t.Fatalf("expected ErrAlreadyCanceled, got %v", err)
	}
	if _, err := f.engine.Confirm(1, f.buyer); !errors.Is(err, ErrAlreadyCanceled) {
		t.Fatalf("confirm after cancel: expected ErrAlreadyCanceled, got %v", err)
	}
}

func TestCancelDoesNotRestoreInventory(t *testing.T) {
	f := newFixture(t)
	f.listProduct(t, 1, 1)
	f.fundBuyer(t, f.buyer)
	if _, err := f.engine.Purchase(1, f.buyer); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := f.engine.Cancel(1, f.buyer); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	product, _, err := f.products.Get(1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Inventory != 0 {
		t.Fatalf("cancellation must not restore inventory, got %d", product.Inventory)
	}
}

func TestRepurchaseAfterCancel(t *testing.T) {
	f := newFixture(t)
	f.listProduct(t, 1, 2)
	f.fundBuyer(t, f.buyer)
	if _, err := f.engine.Purchase(1, f.buyer); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := f.engine.Cancel(1, f.buyer); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	purchase, err := f.engine.Purchase(1, f.buyer)
	if err != nil {
		t.Fatalf("repurchase after cancel: %v", err)
	}
	if purchase.Status != PurchasePaid {
		t.Fatalf("expected fresh paid record, got %v", purchase.Status)
	}
	if purchase.Reported {
		t.Fatalf("fresh record must not carry the reported flag")
	}
}

func TestReportCanceled(t *testing.T) {
	f := newFixture(t)
	f.listProduct(t, 1, 2)
	f.fundBuyer(t, f.buyer)
	if _, err := f.engine.Purchase(1, f.buyer); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if _, err := f.engine.ReportCanceled(1, f.buyer); !errors.Is(err, ErrNotCanceled) {
		t.Fatalf("report before cancel: expected ErrNotCanceled, got %v", err)
	}
	if _, err := f.engine.Cancel(1, f.buyer); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	blocked, err := f.engine.ReportCanceled(1, f.buyer)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if blocked {
		t.Fatalf("first report must not block the seller")
	}
	if _, err := f.engine.ReportCanceled(1, f.buyer); !errors.Is(err, ErrAlreadyReported) {
		t.Fatalf("repeat report: expected ErrAlreadyReported, got %v", err)
	}

	seller, _, err := f.sellers.Get(f.seller)
	if err != nil {
		t.Fatalf("get seller: %v", err)
	}
	if seller.ReportCount != 1 {
		t.Fatalf("expected report count 1, got %d", seller.ReportCount)
	}
}

func TestThirdReportBlocksSeller(t *testing.T) {
	f := newFixture(t)
	buyers := [][20]byte{addr(3), addr(4), addr(5)}
	for i, buyer := range buyers {
		id := uint64(i + 1)
		f.listProduct(t, id, 1)
		f.fundBuyer(t, buyer)
		if _, err := f.engine.Purchase(id, buyer); err != nil {
			t.Fatalf("purchase %d: %v", id, err)
		}
		if _, err := f.engine.Cancel(id, buyer); err != nil {
			t.Fatalf("cancel %d: %v", id, err)
		}
	}

	for i, buyer := range buyers[:2] {
		blocked, err := f.engine.ReportCanceled(uint64(i+1), buyer)
		if err != nil {
			t.Fatalf("report %d: %v", i+1, err)
		}
		if blocked {
			t.Fatalf("report %d must not block", i+1)
		}
	}
	blocked, err := f.engine.ReportCanceled(3, buyers[2])
	if err != nil {
		t.Fatalf("third report: %v", err)
	}
	if !blocked {
		t.Fatalf("third report must block the seller")
	}
	seller, _, err := f.sellers.Get(f.seller)
	if err != nil {
		t.Fatalf("get seller: %v", err)
	}
	if !seller.Blocked || seller.BlockReason != reputation.DefaultBlockReason {
		t.Fatalf("expected auto-blocked seller, got %+v", seller)
	}
}

func TestSellerDetailsGate(t *testing.T) {
	f := newFixture(t)
	f.listProduct(t, 1, 2)
	f.fundBuyer(t, f.buyer)

	if _, err := f.engine.SellerDetails(1, f.buyer); !errors.Is(err, ErrNoPaymentForProduct) {
		t.Fatalf("before purchase: expected ErrNoPaymentForProduct, got %v", err)
	}
	if _, err := f.engine.Purchase(1, f.buyer); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	seller, err := f.engine.SellerDetails(1, f.buyer)
	if err != nil {
		t.Fatalf("paid purchase must reveal details: %v", err)
	}
	if seller.Name != "Acme" {
		t.Fatalf("unexpected seller record: %+v", seller)
	}

	if _, err := f.engine.Confirm(1, f.buyer); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.engine.SellerDetails(1, f.buyer); err != nil {
		t.Fatalf("confirmed purchase must reveal details: %v", err)
	}

	f.fundBuyer(t, addr(5))
	if _, err := f.engine.Purchase(1, addr(5)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := f.engine.Cancel(1, addr(5)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.engine.SellerDetails(1, addr(5)); !errors.Is(err, ErrNoPaymentForProduct) {
		t.Fatalf("canceled purchase: expected ErrNoPaymentForProduct, got %v", err)
	}
}

func TestGetPurchaseUnknownPair(t *testing.T) {
	f := newFixture(t)
	purchase, ok, err := f.engine.GetPurchase(1, f.buyer)
	if err != nil {
		t.Fatalf("getPurchase: %v", err)
	}
	if ok || purchase != nil {
		t.Fatalf("unknown pair must yield ok=false, got ok=%v purchase=%+v", ok, purchase)
	}
}

func TestPurchaseStatusString(t *testing.T) {
	cases := map[PurchaseStatus]string{
		PurchaseUnknown:   "unknown",
		PurchasePaid:      "paid",
		PurchaseConfirmed: "confirmed",
		PurchaseCanceled:  "canceled",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Fatalf("status %d: expected %q, got %q", status, want, got)
		}
	}
}
