package core

import (
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"marketledger/core/events"
	"marketledger/core/state"
	"marketledger/native/catalog"
	"marketledger/native/escrow"
	"marketledger/native/fees"
	"marketledger/native/registry"
	"marketledger/native/reputation"
	"marketledger/native/token"
	"marketledger/storage"
)

// ModuleVaultAddress derives the custody address holding escrowed funds and
// accrued fees. The address has no known private key; only the escrow engine
// and the treasury move funds out of it.
func ModuleVaultAddress() [20]byte {
	hash := ethcrypto.Keccak256([]byte("market/vault"))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// Node wires the state manager, the native engines and the event pipeline
// into a single serialized ledger. Every mutating operation runs under one
// mutex as an atomic unit: on success the state overlay commits and buffered
// events publish; on any error the overlay and the events are discarded
// together. Queries share the mutex so they never observe an in-flight
// mutation.
type Node struct {
	mu       sync.Mutex
	db       storage.Database
	state    *state.Manager
	hub      *events.Hub
	recorder *events.Recorder

	tokens     *token.Ledger
	sellers    *registry.Ledger
	registry   *registry.Engine
	catalog    *catalog.Engine
	escrow     *escrow.Engine
	reputation *reputation.Engine
	treasury   *fees.Treasury

	owner [20]byte
	vault [20]byte
}

// NewNode constructs a fully wired node over the supplied database. The owner
// is the administrator principal and the token minter.
func NewNode(db storage.Database, owner [20]byte) *Node {
	manager := state.NewManager(db)
	vault := ModuleVaultAddress()

	n := &Node{
		db:       db,
		state:    manager,
		hub:      &events.Hub{},
		recorder: &events.Recorder{},
		owner:    owner,
		vault:    vault,
	}

	n.tokens = token.NewLedger(manager)
	n.tokens.SetMinter(owner)
	n.tokens.SetEmitter(n.recorder)

	n.sellers = registry.NewLedger(manager)
	n.registry = registry.NewEngine(n.sellers)
	n.registry.SetOwner(owner)
	n.registry.SetEmitter(n.recorder)

	products := catalog.NewLedger(manager)
	n.catalog = catalog.NewEngine(products, n.sellers)
	n.catalog.SetEmitter(n.recorder)

	n.reputation = reputation.NewEngine(n.sellers)
	n.reputation.SetEmitter(n.recorder)

	n.treasury = fees.NewTreasury(manager, n.tokens)
	n.treasury.SetOwner(owner)
	n.treasury.SetVault(vault)
	n.treasury.SetEmitter(n.recorder)

	n.escrow = escrow.NewEngine(escrow.NewLedger(manager))
	n.escrow.SetProducts(products)
	n.escrow.SetSellers(n.sellers)
	n.escrow.SetTokens(n.tokens)
	n.escrow.SetTreasury(n.treasury)
	n.escrow.SetReporter(n.reputation)
	n.escrow.SetVault(vault)
	n.escrow.SetEmitter(n.recorder)

	return n
}

// Events exposes the hub downstream observers subscribe to. Events publish
// only after the operation that produced them has committed.
func (n *Node) Events() *events.Hub { return n.hub }

// Owner returns the administrator principal.
func (n *Node) Owner() [20]byte { return n.owner }

// Vault returns the module custody address.
func (n *Node) Vault() [20]byte { return n.vault }

// execute runs fn as one atomic state transition. The caller must not hold
// the node mutex.
func (n *Node) execute(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := fn(); err != nil {
		n.state.Reset()
		n.recorder.Discard()
		return err
	}
	if err := n.state.Commit(); err != nil {
		n.state.Reset()
		n.recorder.Discard()
		return err
	}
	for _, evt := range n.recorder.Drain() {
		n.hub.Emit(evt)
	}
	return nil
}

// --- Seller registry ---

func (n *Node) RegisterSeller(caller [20]byte, name, uri, location, contact string) (*registry.Seller, error) {
	var seller *registry.Seller
	err := n.execute(func() error {
		var err error
		seller, err = n.registry.Register(caller, name, uri, location, contact)
		return err
	})
	return seller, err
}

func (n *Node) BlockSeller(caller, seller [20]byte, reason string) error {
	return n.execute(func() error {
		return n.registry.BlockByOwner(caller, seller, reason)
	})
}

func (n *Node) UnblockSeller(caller, seller [20]byte) error {
	return n.execute(func() error {
		return n.registry.Unblock(caller, seller)
	})
}

func (n *Node) IsSellerBlocked(seller [20]byte) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.IsBlocked(seller)
}

func (n *Node) BlockedSellerDetails(seller [20]byte) (*registry.Seller, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.BlockedDetails(seller)
}

// --- Product catalog ---

func (n *Node) CreateProduct(caller [20]byte, name, image string, price *big.Int, description string, inventory uint64) (*catalog.Product, error) {
	var product *catalog.Product
	err := n.execute(func() error {
		var err error
		product, err = n.catalog.Create(caller, name, image, price, description, inventory)
		return err
	})
	return product, err
}

func (n *Node) GetProduct(id uint64) (*catalog.Product, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.catalog.Get(id)
}

// --- Escrow & purchase ledger ---

func (n *Node) PurchaseProduct(productID uint64, buyer [20]byte) (*escrow.Purchase, error) {
	var purchase *escrow.Purchase
	err := n.execute(func() error {
		var err error
		purchase, err = n.escrow.Purchase(productID, buyer)
		return err
	})
	return purchase, err
}

func (n *Node) ConfirmPayment(productID uint64, caller [20]byte) (*escrow.Purchase, error) {
	var purchase *escrow.Purchase
	err := n.execute(func() error {
		var err error
		purchase, err = n.escrow.Confirm(productID, caller)
		return err
	})
	return purchase, err
}

func (n *Node) CancelPurchase(productID uint64, caller [20]byte) (*escrow.Purchase, error) {
	var purchase *escrow.Purchase
	err := n.execute(func() error {
		var err error
		purchase, err = n.escrow.Cancel(productID, caller)
		return err
	})
	return purchase, err
}

func (n *Node) ReportCanceledPurchase(productID uint64, caller [20]byte) (bool, error) {
	var blocked bool
	err := n.execute(func() error {
		var err error
		blocked, err = n.escrow.ReportCanceled(productID, caller)
		return err
	})
	return blocked, err
}

func (n *Node) GetPurchase(productID uint64, buyer [20]byte) (*escrow.Purchase, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.escrow.GetPurchase(productID, buyer)
}

func (n *Node) GetSellerDetails(productID uint64, caller [20]byte) (*registry.Seller, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.escrow.SellerDetails(productID, caller)
}

// --- Reputation ---

func (n *Node) RateSeller(caller, seller [20]byte) (*registry.Seller, error) {
	var record *registry.Seller
	err := n.execute(func() error {
		var err error
		record, err = n.reputation.Rate(caller, seller)
		return err
	})
	return record, err
}

// --- Fee treasury ---

func (n *Node) WithdrawFees(caller, destination [20]byte) (*big.Int, error) {
	var amount *big.Int
	err := n.execute(func() error {
		var err error
		amount, err = n.treasury.Withdraw(caller, destination)
		return err
	})
	return amount, err
}

func (n *Node) FeeBalance() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.treasury.Accrued()
}

// --- Token ledger ---

func (n *Node) MintTokens(caller, to [20]byte, amount *big.Int) error {
	return n.execute(func() error {
		return n.tokens.Mint(caller, to, amount)
	})
}

func (n *Node) ApproveTokens(owner, spender [20]byte, amount *big.Int) error {
	return n.execute(func() error {
		return n.tokens.Approve(owner, spender, amount)
	})
}

func (n *Node) TransferTokens(from, to [20]byte, amount *big.Int) error {
	return n.execute(func() error {
		return n.tokens.Transfer(from, to, amount)
	})
}

func (n *Node) TokenBalance(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens.BalanceOf(addr)
}

func (n *Node) TokenAllowance(owner, spender [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens.Allowance(owner, spender)
}
