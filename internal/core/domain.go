package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindTransfer TransactionKind = "transfer"
)

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
)

type (
	TransactionKind string

	CategoryKind string

	Account struct {
		ID             int64
		Name           string
		OpeningBalance Money
	}

	Category struct {
		ID   int64
		Name string
		Kind CategoryKind
	}

	Transaction struct {
		ID                   int64
		Kind                 TransactionKind
		Amount               Money
		Date                 time.Time
		SourceAccountID      int64
		CategoryID           *int64 // income/expense only
		DestinationAccountID *int64 // transfer only
		Description          string
		Mirrored             bool
	}

	// MonthRef identifies a calendar month explicitly, so list and summary
	// operations never depend on an implicit "now".
	MonthRef struct {
		Year  int
		Month int // 1-12
	}

	CategoryAmount struct {
		Name   string
		Amount Money
	}

	// MonthSummary aggregates a month's incomes, expenses and the expense
	// breakdown by category. Transfers move money between accounts and are
	// excluded from the totals.
	MonthSummary struct {
		Month      MonthRef
		Income     Money
		Expenses   Money
		Net        Money
		ByCategory []CategoryAmount
	}
)

var (
	ErrEmptyName            = errors.New("name cannot be empty")
	ErrInvalidKind          = errors.New("invalid kind")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrCategoryRequired     = errors.New("income and expense transactions require a category")
	ErrCategoryKindMismatch = errors.New("category kind does not match transaction kind")
	ErrDestinationRequired  = errors.New("transfer requires a destination account")
	ErrSameAccountTransfer  = errors.New("transfer accounts must differ")

	ErrAccountNotFound     = errors.New("account not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

var validationErrs = []error{
	ErrEmptyName,
	ErrInvalidKind,
	ErrInvalidAmount,
	ErrCategoryRequired,
	ErrCategoryKindMismatch,
	ErrDestinationRequired,
	ErrSameAccountTransfer,
}

// IsValidation reports whether err is a malformed-input error (as opposed to
// a missing reference or a storage failure).
func IsValidation(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means a referenced record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

func (k TransactionKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer:
		return true
	}
	return false
}

func (k CategoryKind) Valid() bool {
	switch k {
	case CategoryIncome, CategoryExpense:
		return true
	}
	return false
}

// ParseTransactionKind accepts both canonical kinds and the Portuguese CLI
// aliases (receita, despesa, transferencia).
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "receita":
		return KindIncome, nil
	case "expense", "despesa":
		return KindExpense, nil
	case "transfer", "transferencia", "transferência":
		return KindTransfer, nil
	}
	return "", ErrInvalidKind
}

// ParseCategoryKind accepts both canonical kinds and the Portuguese CLI
// aliases (receita, despesa).
func ParseCategoryKind(s string) (CategoryKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "receita":
		return CategoryIncome, nil
	case "expense", "despesa":
		return CategoryExpense, nil
	}
	return "", ErrInvalidKind
}

// Label returns the Portuguese display name used by the CLI and the menu.
func (k TransactionKind) Label() string {
	switch k {
	case KindIncome:
		return "receita"
	case KindExpense:
		return "despesa"
	case KindTransfer:
		return "transferência"
	}
	return string(k)
}

func (k CategoryKind) Label() string {
	switch k {
	case CategoryIncome:
		return "receita"
	case CategoryExpense:
		return "despesa"
	}
	return string(k)
}

func (a Account) Validate() error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// Validate checks the parts of a transaction that need no store lookups:
// kind, amount and the shape of its references. Reference existence and
// category-kind consistency are checked by the store at record time.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.ValidateReferences()
}

// ValidateReferences checks the kind-specific reference shape: transfers need
// a distinct destination account, income and expense need a category. The
// store runs it after confirming the source account exists, so a missing
// account reports not-found before any shape complaint.
func (t Transaction) ValidateReferences() error {
	switch t.Kind {
	case KindTransfer:
		if t.DestinationAccountID == nil {
			return ErrDestinationRequired
		}
		if *t.DestinationAccountID == t.SourceAccountID {
			return ErrSameAccountTransfer
		}
	default:
		if t.CategoryID == nil {
			return ErrCategoryRequired
		}
	}
	return nil
}
